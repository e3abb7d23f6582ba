package model

import (
	"fmt"
	"time"
)

// NotificationType は通知の種類を表します
type NotificationType string

const (
	NotificationTypeBooking  NotificationType = "Booking"
	NotificationTypeCheckIn  NotificationType = "CheckIn"
	NotificationTypeCheckOut NotificationType = "CheckOut"
	NotificationTypeBilling  NotificationType = "Billing"
	NotificationTypePayment  NotificationType = "Payment"
	NotificationTypeGeneral  NotificationType = "General"
)

// Notification は通知キューに積まれるイベントです
// ディスパッチャがNotificationRecordに変換して永続化します
type Notification struct {
	UserID    int64            `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationRecord は永続化される通知レコードです
type NotificationRecord struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// ToNotificationRecord は通知を未読の通知レコードに変換します
func (n Notification) ToNotificationRecord() (*NotificationRecord, error) {
	if n.UserID == 0 {
		return nil, fmt.Errorf("notification has no target user")
	}
	if n.Message == "" {
		return nil, fmt.Errorf("notification message is empty")
	}
	typ := n.Type
	if typ == "" {
		typ = NotificationTypeGeneral
	}
	return &NotificationRecord{
		UserID:    n.UserID,
		Message:   n.Message,
		Type:      typ,
		IsRead:    false,
		CreatedAt: n.CreatedAt,
	}, nil
}

// NewBookingNotification は予約受付の通知を作成します
func NewBookingNotification(r Reservation, room Room, now time.Time) Notification {
	return Notification{
		UserID:    r.GuestID,
		Type:      NotificationTypeBooking,
		Message:   fmt.Sprintf("Your reservation #%s for room %s (%s to %s) is pending confirmation.", r.ReservationNumber, room.RoomNumber, r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout)),
		CreatedAt: now,
	}
}

// NewCheckInNotification はチェックインの通知を作成します
func NewCheckInNotification(r Reservation, room Room, now time.Time) Notification {
	return Notification{
		UserID:    r.GuestID,
		Type:      NotificationTypeCheckIn,
		Message:   fmt.Sprintf("Welcome! You have successfully checked in to room %s. Enjoy your stay!", room.RoomNumber),
		CreatedAt: now,
	}
}

// NewCheckOutNotification はチェックアウトの通知を作成します
func NewCheckOutNotification(r Reservation, now time.Time) Notification {
	return Notification{
		UserID:    r.GuestID,
		Type:      NotificationTypeCheckOut,
		Message:   fmt.Sprintf("Thank you for staying with us! Check-out for reservation #%s is confirmed.", r.ReservationNumber),
		CreatedAt: now,
	}
}

// NewBillingNotification は請求書発行の通知を作成します
func NewBillingNotification(guestID int64, b Bill, now time.Time) Notification {
	return Notification{
		UserID:    guestID,
		Type:      NotificationTypeBilling,
		Message:   fmt.Sprintf("Bill #%s has been generated. Total: %.2f.", b.BillNumber, b.TotalAmount),
		CreatedAt: now,
	}
}

// NewPaymentNotification は支払い完了の通知を作成します
func NewPaymentNotification(guestID int64, b Bill, now time.Time) Notification {
	return Notification{
		UserID:    guestID,
		Type:      NotificationTypePayment,
		Message:   fmt.Sprintf("Payment successful for bill #%s. Amount: %.2f.", b.BillNumber, b.TotalAmount),
		CreatedAt: now,
	}
}

// NewCheckInReminderNotification は前日のチェックイン案内を作成します
func NewCheckInReminderNotification(r Reservation, room Room, now time.Time) Notification {
	return Notification{
		UserID:    r.GuestID,
		Type:      NotificationTypeGeneral,
		Message:   fmt.Sprintf("Reminder: your stay in room %s (reservation #%s) begins on %s.", room.RoomNumber, r.ReservationNumber, r.CheckIn.Format(DateLayout)),
		CreatedAt: now,
	}
}
