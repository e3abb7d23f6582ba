// Package reservation は予約の受付とライフサイクルを管理します
package reservation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/service/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/service/billing"
	"github.com/uma-arai/sbcntr-hotel/internal/service/notification"
)

const reservationNumberPrefix = "RES"

// Options は予約ルールの切り替えです
type Options struct {
	// EnforceCapacity が true の場合、宿泊人数が客室の定員を超える予約を拒否します
	EnforceCapacity bool
	// EnforceTransitions が true の場合、状態遷移表にない遷移を拒否します
	EnforceTransitions bool
}

// Deps はEngineが利用するコンポーネントです
type Deps struct {
	Rooms        repository.RoomRepository
	Reservations repository.ReservationRepository
	Checker      *availability.Checker
	Billing      *billing.Generator
	Notifier     notification.Sender
	Clock        clock.Clock
	Logger       *slog.Logger
}

// CreateRequest は予約作成の入力です
type CreateRequest struct {
	GuestID        int64
	RoomID         int64
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	SpecialRequest *string
}

// Engine は予約の受付、状態遷移、キャンセルを行います
// 同じ客室への書き込みは客室単位のロックで直列化します
type Engine struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	checker      *availability.Checker
	billing      *billing.Generator
	notifier     notification.Sender
	clock        clock.Clock
	logger       *slog.Logger
	opts         Options
	locks        *roomLocks
}

// NewEngine は新しいEngineを作成します
func NewEngine(deps Deps, opts Options) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.UTC{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Checker == nil {
		deps.Checker = availability.NewChecker(deps.Rooms, deps.Reservations)
	}
	return &Engine{
		rooms:        deps.Rooms,
		reservations: deps.Reservations,
		checker:      deps.Checker,
		billing:      deps.Billing,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
		opts:         opts,
		locks:        newRoomLocks(),
	}
}

// CreateReservation は空室を確認して Pending の予約を作成します
func (e *Engine) CreateReservation(ctx context.Context, req CreateRequest) (res model.Reservation, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationEngine.CreateReservation")
	defer func() { end(err) }()

	stay, err := model.NewDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return model.Reservation{}, err
	}

	room, err := e.rooms.Get(ctx, req.RoomID)
	if err != nil {
		return model.Reservation{}, err
	}

	guests := req.Guests
	if guests < 1 {
		guests = 1
	}
	if e.opts.EnforceCapacity && guests > room.Capacity {
		return model.Reservation{}, model.ErrCapacityExceeded
	}

	unlock := e.locks.lock(room.ID)
	defer unlock()

	ok, err := e.checker.IsAvailable(ctx, room.ID, stay.CheckIn, stay.CheckOut, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	if !ok {
		return model.Reservation{}, model.ErrRoomUnavailable
	}

	now := e.clock.Now()
	res = model.Reservation{
		RoomID:         room.ID,
		GuestID:        req.GuestID,
		CheckIn:        stay.CheckIn,
		CheckOut:       stay.CheckOut,
		Guests:         guests,
		TotalAmount:    model.RoundCents(float64(stay.Nights()) * room.BasePrice),
		Status:         model.ReservationPending,
		SpecialRequest: trimRequest(req.SpecialRequest),
		CreatedAt:      now,
	}

	err = utils.RetryOnConflict(ctx, func(ctx context.Context) error {
		res.ReservationNumber = utils.NewDocumentNumber(reservationNumberPrefix, now)
		return e.reservations.Create(ctx, &res)
	})
	if err != nil {
		return model.Reservation{}, err
	}

	e.logger.Info("reservation created",
		"reservation_id", res.ID, "reservation_number", res.ReservationNumber,
		"room_id", room.ID, "guest_id", res.GuestID,
		"check_in", res.CheckIn.Format(model.DateLayout), "check_out", res.CheckOut.Format(model.DateLayout))
	e.notify(model.NewBookingNotification(res, room, now))
	return res, nil
}

// UpdateStatus は予約を newStatus に遷移させ、客室・請求書・通知の副作用を起こします
// 現在と同じ状態への遷移は何もしません。ただしチェックアウト済みなら請求書の存在だけは保証します
func (e *Engine) UpdateStatus(ctx context.Context, reservationID int64, newStatus string) (res model.Reservation, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationEngine.UpdateStatus")
	defer func() { end(err) }()

	target, err := model.ParseReservationStatus(newStatus)
	if err != nil {
		return model.Reservation{}, err
	}

	unlock, res, err := e.lockReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	defer unlock()

	if res.Status == target {
		if target == model.ReservationCheckedOut {
			if _, err = e.ensureBill(ctx, res.ID); err != nil {
				return model.Reservation{}, err
			}
		}
		return res, nil
	}

	if e.opts.EnforceTransitions && !res.Status.CanTransitionTo(target) {
		return model.Reservation{}, fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, res.Status, target)
	}

	// キャンセル済みの予約を戻す場合は、空いた期間に入った別の予約と重ならないか確認する
	if res.Status == model.ReservationCancelled {
		ok, err := e.checker.IsAvailable(ctx, res.RoomID, res.CheckIn, res.CheckOut, &res.ID)
		if err != nil {
			return model.Reservation{}, err
		}
		if !ok {
			return model.Reservation{}, model.ErrRoomUnavailable
		}
	}

	now := e.clock.Now()
	if err = e.reservations.UpdateStatus(ctx, res.ID, target, now); err != nil {
		return model.Reservation{}, fmt.Errorf("failed to update reservation %d: %w", res.ID, err)
	}
	previous := res.Status
	res.Status = target
	res.UpdatedAt = &now

	e.logger.Info("reservation status changed",
		"reservation_id", res.ID, "from", previous, "to", target)

	switch target {
	case model.ReservationCheckedIn:
		if err = e.rooms.UpdateStatus(ctx, res.RoomID, model.RoomOccupied, now); err != nil {
			return model.Reservation{}, fmt.Errorf("failed to mark room %d occupied: %w", res.RoomID, err)
		}
		room, err := e.rooms.Get(ctx, res.RoomID)
		if err != nil {
			return model.Reservation{}, err
		}
		e.notify(model.NewCheckInNotification(res, room, now))

	case model.ReservationCheckedOut:
		if err = e.rooms.UpdateStatus(ctx, res.RoomID, model.RoomAvailable, now); err != nil {
			return model.Reservation{}, fmt.Errorf("failed to release room %d: %w", res.RoomID, err)
		}
		if _, err = e.ensureBill(ctx, res.ID); err != nil {
			return model.Reservation{}, err
		}
		e.notify(model.NewCheckOutNotification(res, now))
	}

	return res, nil
}

// CancelReservation は予約をキャンセルします。客室の状態と請求書には触れません
func (e *Engine) CancelReservation(ctx context.Context, reservationID int64) (res model.Reservation, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationEngine.CancelReservation")
	defer func() { end(err) }()

	unlock, res, err := e.lockReservation(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, err
	}
	defer unlock()

	if res.Status == model.ReservationCancelled {
		return model.Reservation{}, model.ErrAlreadyCancelled
	}
	if e.opts.EnforceTransitions && !res.Status.CanTransitionTo(model.ReservationCancelled) {
		return model.Reservation{}, fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, res.Status, model.ReservationCancelled)
	}

	now := e.clock.Now()
	if err = e.reservations.UpdateStatus(ctx, res.ID, model.ReservationCancelled, now); err != nil {
		return model.Reservation{}, fmt.Errorf("failed to cancel reservation %d: %w", res.ID, err)
	}
	res.Status = model.ReservationCancelled
	res.UpdatedAt = &now

	e.logger.Info("reservation cancelled", "reservation_id", res.ID, "room_id", res.RoomID)
	return res, nil
}

// GetOrCreateBillForReservation は予約の請求書を返します。なければ状態に関係なく作成します
func (e *Engine) GetOrCreateBillForReservation(ctx context.Context, reservationID int64) (model.Bill, error) {
	if _, err := e.reservations.Get(ctx, reservationID); err != nil {
		return model.Bill{}, err
	}
	return e.ensureBill(ctx, reservationID)
}

// Get は予約を返します
func (e *Engine) Get(ctx context.Context, reservationID int64) (model.Reservation, error) {
	return e.reservations.Get(ctx, reservationID)
}

// ListByGuest はゲストの予約を新しい順に返します
func (e *Engine) ListByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error) {
	list, err := e.reservations.ListByGuest(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations for guest %d: %w", guestID, err)
	}
	return list, nil
}

// ListByDateRange はチェックイン日が [start, end] の予約をチェックイン順に返します
func (e *Engine) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	if model.DateOf(end).Before(model.DateOf(start)) {
		return nil, model.ErrInvalidDateRange
	}
	list, err := e.reservations.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations by date: %w", err)
	}
	return list, nil
}

// lockReservation は予約の客室ロックを取得し、ロック内で読み直した予約を返します
func (e *Engine) lockReservation(ctx context.Context, reservationID int64) (func(), model.Reservation, error) {
	res, err := e.reservations.Get(ctx, reservationID)
	if err != nil {
		return nil, model.Reservation{}, err
	}

	unlock := e.locks.lock(res.RoomID)
	res, err = e.reservations.Get(ctx, reservationID)
	if err != nil {
		unlock()
		return nil, model.Reservation{}, err
	}
	return unlock, res, nil
}

func (e *Engine) ensureBill(ctx context.Context, reservationID int64) (model.Bill, error) {
	if e.billing == nil {
		return model.Bill{}, fmt.Errorf("billing is not configured")
	}
	bill, err := e.billing.GenerateBill(ctx, reservationID)
	if err != nil {
		return model.Bill{}, fmt.Errorf("failed to generate bill for reservation %d: %w", reservationID, err)
	}
	return bill, nil
}

func (e *Engine) notify(n model.Notification) {
	if e.notifier == nil {
		return
	}
	if !e.notifier.Enqueue(n) {
		e.logger.Warn("notification queue closed, notification dropped", "user_id", n.UserID, "type", n.Type)
	}
}

func trimRequest(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
