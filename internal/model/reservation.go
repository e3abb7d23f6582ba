package model

import (
	"strings"
	"time"
)

// ReservationStatus は予約のライフサイクル上の状態です
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "Pending"
	ReservationConfirmed  ReservationStatus = "Confirmed"
	ReservationCheckedIn  ReservationStatus = "Checked-in"
	ReservationCheckedOut ReservationStatus = "Checked-out"
	ReservationCancelled  ReservationStatus = "Cancelled"
	ReservationPaid       ReservationStatus = "Paid"
)

// ParseReservationStatus は外部から受け取った文字列を正規化します
// "CheckedOut" と "Checked-out" はどちらも Checked-out として扱います
func ParseReservationStatus(s string) (ReservationStatus, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch key {
	case "pending":
		return ReservationPending, nil
	case "confirmed":
		return ReservationConfirmed, nil
	case "checkedin":
		return ReservationCheckedIn, nil
	case "checkedout":
		return ReservationCheckedOut, nil
	case "cancelled", "canceled":
		return ReservationCancelled, nil
	case "paid":
		return ReservationPaid, nil
	}
	return "", ErrInvalidStatus
}

// Checked-out から Paid へは請求書の支払い (billing.Generator.MarkPaid) でのみ進みます
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:    {ReservationConfirmed, ReservationCheckedIn, ReservationCancelled},
	ReservationConfirmed:  {ReservationCheckedIn, ReservationCancelled},
	ReservationCheckedIn:  {ReservationCheckedOut},
}

// CanTransitionTo は遷移表に従って遷移可否を返します
// 同じ状態への遷移は冪等な再適用として許可します
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal は以降の遷移が存在しない状態かどうかを返します
// Checked-out は支払いによって Paid に進むため終端ではありません
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationCancelled || s == ReservationPaid
}

// Reservation は客室の予約です。物理削除はせず、キャンセルは状態で表します
type Reservation struct {
	ID                int64             `json:"id" db:"id"`
	ReservationNumber string            `json:"reservation_number" db:"reservation_number"`
	RoomID            int64             `json:"room_id" db:"room_id"`
	GuestID           int64             `json:"guest_id" db:"guest_id"`
	CheckIn           time.Time         `json:"check_in" db:"check_in"`
	CheckOut          time.Time         `json:"check_out" db:"check_out"`
	Guests            int               `json:"guests" db:"guests"`
	TotalAmount       float64           `json:"total_amount" db:"total_amount"`
	Status            ReservationStatus `json:"status" db:"status"`
	SpecialRequest    *string           `json:"special_request,omitempty" db:"special_request"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         *time.Time        `json:"updated_at,omitempty" db:"updated_at"`
}

// Range は予約の宿泊区間を返します
func (r Reservation) Range() DateRange {
	return DateRange{CheckIn: DateOf(r.CheckIn), CheckOut: DateOf(r.CheckOut)}
}

// BlocksRoom はキャンセル以外の予約を空室判定の対象とします
func (r Reservation) BlocksRoom() bool {
	return r.Status != ReservationCancelled
}
