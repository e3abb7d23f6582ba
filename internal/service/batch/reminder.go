package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// ReminderResult はバッチの実行結果です
type ReminderResult struct {
	Date           string  `json:"date"`
	ReservationIDs []int64 `json:"reservation_ids"`
}

// CheckInReminderBatchService は翌日チェックインの予約にリマインド通知を作成します
type CheckInReminderBatchService struct {
	cfg              *config.Config
	rooms            repository.RoomRepository
	reservations     repository.ReservationRepository
	notificationRepo repository.NotificationRepository
	sfnClient        SFNClient
	clock            clock.Clock
	logger           *slog.Logger
}

// NewCheckInReminderBatchService は新しいCheckInReminderBatchServiceを作成します
func NewCheckInReminderBatchService(
	cfg *config.Config,
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	notificationRepo repository.NotificationRepository,
	sfnClient SFNClient,
	clk clock.Clock,
	logger *slog.Logger,
) *CheckInReminderBatchService {
	if clk == nil {
		clk = clock.UTC{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckInReminderBatchService{
		cfg:              cfg,
		rooms:            rooms,
		reservations:     reservations,
		notificationRepo: notificationRepo,
		sfnClient:        sfnClient,
		clock:            clk,
		logger:           logger,
	}
}

// Run は翌日チェックインの Pending/Confirmed 予約ごとに通知レコードを作成します
func (s *CheckInReminderBatchService) Run(ctx context.Context) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "CheckInReminderBatchService.Run")
	defer func() { end(err) }()

	startTime := time.Now()
	now := s.clock.Now()
	tomorrow := model.DateOf(now).AddDate(0, 0, 1)

	reservations, err := s.reservations.ListByDateRange(ctx, tomorrow, tomorrow)
	if err != nil {
		return fmt.Errorf("failed to list reservations checking in on %s: %w", tomorrow.Format(model.DateLayout), err)
	}

	result := ReminderResult{Date: tomorrow.Format(model.DateLayout), ReservationIDs: []int64{}}
	// 同じ客室を何度も読まないようにキャッシュする
	rooms := make(map[int64]model.Room)

	for _, r := range reservations {
		if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
			continue
		}

		room, ok := rooms[r.RoomID]
		if !ok {
			room, err = s.rooms.Get(ctx, r.RoomID)
			if err != nil {
				return fmt.Errorf("failed to get room %d: %w", r.RoomID, err)
			}
			rooms[r.RoomID] = room
		}

		record, err := model.NewCheckInReminderNotification(r, room, now).ToNotificationRecord()
		if err != nil {
			s.logger.Warn("skipping reminder", "reservation_id", r.ID, "err", err)
			continue
		}
		if err := s.notificationRepo.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create reminder for reservation %d: %w", r.ID, err)
		}
		result.ReservationIDs = append(result.ReservationIDs, r.ID)
	}

	if err := sendTaskSuccess(ctx, s.cfg, s.sfnClient, s.logger, result); err != nil {
		return err
	}

	duration := time.Since(startTime)
	utils.AddMetadata(ctx, "duration", duration.String())
	s.logger.Info("check-in reminder batch completed", "reminders", len(result.ReservationIDs), "duration", duration)
	return nil
}
