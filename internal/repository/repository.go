package repository

import (
	"context"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// RoomRepository は客室の永続化を担当するインターフェースです
type RoomRepository interface {
	Get(ctx context.Context, id int64) (model.Room, error)
	ListAll(ctx context.Context) ([]model.Room, error)
	ListByHotel(ctx context.Context, hotelID int64) ([]model.Room, error)
	// FindCandidates は状態・定員・ホテル・部屋タイプで絞り込んだ客室を返します
	// 日付の重なりは判定しません
	FindCandidates(ctx context.Context, search model.RoomSearch) ([]model.Room, error)
	UpdateStatus(ctx context.Context, id int64, status model.RoomStatus, at time.Time) error
	// Create は客室を登録し、採番したIDを room に設定します
	// 同じホテルに同じ部屋番号がある場合は ErrDuplicateRoom を返します
	Create(ctx context.Context, room *model.Room) error
	// Update は客室の属性を更新します。状態は UpdateStatus で変更します
	Update(ctx context.Context, room model.Room) error
}

// ReservationRepository は予約の永続化を担当するインターフェースです
type ReservationRepository interface {
	Get(ctx context.Context, id int64) (model.Reservation, error)
	// ListActiveByRoom はキャンセル以外で、チェックアウト日が since より後の予約を返します
	ListActiveByRoom(ctx context.Context, roomID int64, since time.Time) ([]model.Reservation, error)
	// Create は客室単位で重複確認と登録をアトミックに行います
	// 重なる予約がある場合は model.ErrRoomUnavailable を返します
	Create(ctx context.Context, r *model.Reservation) error
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus, at time.Time) error
	ListByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error)
	ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error)
}

// BillRepository は請求書の永続化を担当するインターフェースです
type BillRepository interface {
	Get(ctx context.Context, id int64) (model.Bill, error)
	GetByReservation(ctx context.Context, reservationID int64) (model.Bill, error)
	// CreateIfAbsent は予約に請求書がなければ登録して true を返します
	// 既に存在する場合は b を既存の請求書で上書きして false を返します
	CreateIfAbsent(ctx context.Context, b *model.Bill) (bool, error)
	UpdatePayment(ctx context.Context, id int64, status model.PaymentStatus, paidAt *time.Time) error
}

// NotificationRepository は通知の永続化を担当するインターフェースです
type NotificationRepository interface {
	Create(ctx context.Context, record *model.NotificationRecord) error
	GetUnreadByUserID(ctx context.Context, userID int64) ([]model.NotificationRecord, error)
	UpdateIsRead(ctx context.Context, id int64, isRead bool) error
}
