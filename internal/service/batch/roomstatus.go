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

// RoomStatusChange は補正した客室の状態です
type RoomStatusChange struct {
	RoomID     int64            `json:"room_id"`
	RoomNumber string           `json:"room_number"`
	From       model.RoomStatus `json:"from"`
	To         model.RoomStatus `json:"to"`
}

// RoomStatusResult はバッチの実行結果です
// MultipleCheckIns は当日の Checked-in 予約が複数あり、補正しなかった客室のIDです
type RoomStatusResult struct {
	CheckedRooms     int                `json:"checked_rooms"`
	Corrections      []RoomStatusChange `json:"corrections"`
	MultipleCheckIns []int64            `json:"multiple_check_ins"`
	Date             string             `json:"date"`
}

// RoomStatusBatchService は客室の Occupied/Available を予約から再計算して補正します
// 当日を含む Checked-in の予約がある客室は Occupied、ない客室は Available です
// Maintenance の客室は対象外です
type RoomStatusBatchService struct {
	cfg          *config.Config
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	sfnClient    SFNClient
	clock        clock.Clock
	logger       *slog.Logger
}

// NewRoomStatusBatchService は新しいRoomStatusBatchServiceを作成します
func NewRoomStatusBatchService(
	cfg *config.Config,
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	sfnClient SFNClient,
	clk clock.Clock,
	logger *slog.Logger,
) *RoomStatusBatchService {
	if clk == nil {
		clk = clock.UTC{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomStatusBatchService{
		cfg:          cfg,
		rooms:        rooms,
		reservations: reservations,
		sfnClient:    sfnClient,
		clock:        clk,
		logger:       logger,
	}
}

// Run は客室の状態を補正し、結果を Step Functions に通知します
func (s *RoomStatusBatchService) Run(ctx context.Context) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "RoomStatusBatchService.Run")
	defer func() { end(err) }()

	startTime := time.Now()

	result, err := s.reconcile(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile room status: %w", err)
	}

	if err := sendTaskSuccess(ctx, s.cfg, s.sfnClient, s.logger, result); err != nil {
		return err
	}

	duration := time.Since(startTime)
	utils.AddMetadata(ctx, "duration", duration.String())
	s.logger.Info("room status batch completed",
		"checked_rooms", result.CheckedRooms, "corrections", len(result.Corrections), "duration", duration)
	return nil
}

func (s *RoomStatusBatchService) reconcile(ctx context.Context) (RoomStatusResult, error) {
	now := s.clock.Now()
	today := model.DateOf(now)
	result := RoomStatusResult{
		Date:             today.Format(model.DateLayout),
		Corrections:      []RoomStatusChange{},
		MultipleCheckIns: []int64{},
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list rooms: %w", err)
	}

	checkedIn, err := s.reservations.ListByStatus(ctx, model.ReservationCheckedIn)
	if err != nil {
		return result, fmt.Errorf("failed to list checked-in reservations: %w", err)
	}

	occupied := make(map[int64]int)
	for _, r := range checkedIn {
		if r.Range().Contains(today) {
			occupied[r.RoomID]++
		}
	}

	for _, room := range rooms {
		if room.Status == model.RoomMaintenance {
			continue
		}
		result.CheckedRooms++

		want := model.RoomAvailable
		switch n := occupied[room.ID]; {
		case n == 1:
			want = model.RoomOccupied
		case n > 1:
			// Occupied は滞在中の予約がちょうど1件の場合に限る。複数ある客室は状態を変えずに報告だけする
			s.logger.Warn("room has multiple checked-in reservations today", "room_id", room.ID, "count", n)
			result.MultipleCheckIns = append(result.MultipleCheckIns, room.ID)
			continue
		}
		if room.Status == want {
			continue
		}

		if err := s.rooms.UpdateStatus(ctx, room.ID, want, now); err != nil {
			s.logger.Error("failed to correct room status", "room_id", room.ID, "err", err)
			continue
		}
		s.logger.Info("room status corrected", "room_id", room.ID, "from", room.Status, "to", want)
		result.Corrections = append(result.Corrections, RoomStatusChange{
			RoomID:     room.ID,
			RoomNumber: room.RoomNumber,
			From:       room.Status,
			To:         want,
		})
	}

	return result, nil
}
