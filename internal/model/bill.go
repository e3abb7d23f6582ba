package model

import (
	"strings"
	"time"
)

// TaxRate は客室料金に対する税率です
const TaxRate = 0.10

// PaymentStatus は請求書の支払い状態です
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// ParsePaymentStatus は文字列を支払い状態に変換します
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PaymentPending, nil
	case "paid":
		return PaymentPaid, nil
	}
	return "", ErrInvalidStatus
}

// Bill は予約1件に対して最大1件だけ発行される請求書です
type Bill struct {
	ID                int64         `json:"id" db:"id"`
	BillNumber        string        `json:"bill_number" db:"bill_number"`
	ReservationID     int64         `json:"reservation_id" db:"reservation_id"`
	RoomCharges       float64       `json:"room_charges" db:"room_charges"`
	TaxAmount         float64       `json:"tax_amount" db:"tax_amount"`
	AdditionalCharges float64       `json:"additional_charges" db:"additional_charges"`
	TotalAmount       float64       `json:"total_amount" db:"total_amount"`
	PaymentStatus     PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	PaidAt            *time.Time    `json:"paid_at,omitempty" db:"paid_at"`
}

// NewBill は予約金額から請求額を計算します。金額は作成後に再計算しません
func NewBill(billNumber string, reservation Reservation, now time.Time) Bill {
	roomCharges := RoundCents(reservation.TotalAmount)
	tax := RoundCents(roomCharges * TaxRate)
	return Bill{
		BillNumber:        billNumber,
		ReservationID:     reservation.ID,
		RoomCharges:       roomCharges,
		TaxAmount:         tax,
		AdditionalCharges: 0,
		TotalAmount:       RoundCents(roomCharges + tax),
		PaymentStatus:     PaymentPending,
		CreatedAt:         now,
	}
}
