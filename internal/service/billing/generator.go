// Package billing はチェックアウト時の請求書を生成し、支払い状態を管理します
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/service/notification"
)

const billNumberPrefix = "BILL"

// Generator は予約ごとに1件だけ請求書を作成します
type Generator struct {
	bills        repository.BillRepository
	reservations repository.ReservationRepository
	notifier     notification.Sender
	clock        clock.Clock
	logger       *slog.Logger
}

// NewGenerator は新しいGeneratorを作成します
func NewGenerator(
	bills repository.BillRepository,
	reservations repository.ReservationRepository,
	notifier notification.Sender,
	clk clock.Clock,
	logger *slog.Logger,
) *Generator {
	if clk == nil {
		clk = clock.UTC{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		bills:        bills,
		reservations: reservations,
		notifier:     notifier,
		clock:        clk,
		logger:       logger,
	}
}

// GenerateBill は予約の請求書を返します。まだなければ作成します
// 何度呼んでも、同時に呼ばれても請求書は1件で、Billing通知は作成時のみ送ります
func (g *Generator) GenerateBill(ctx context.Context, reservationID int64) (bill model.Bill, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "BillingGenerator.GenerateBill")
	defer func() { end(err) }()

	reservation, err := g.reservations.Get(ctx, reservationID)
	if err != nil {
		return model.Bill{}, err
	}

	existing, err := g.bills.GetByReservation(ctx, reservationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrBillNotFound) {
		return model.Bill{}, fmt.Errorf("failed to look up bill for reservation %d: %w", reservationID, err)
	}

	var created bool
	err = utils.RetryOnConflict(ctx, func(ctx context.Context) error {
		now := g.clock.Now()
		bill = model.NewBill(utils.NewDocumentNumber(billNumberPrefix, now), reservation, now)
		var createErr error
		created, createErr = g.bills.CreateIfAbsent(ctx, &bill)
		return createErr
	})
	if err != nil {
		return model.Bill{}, fmt.Errorf("failed to create bill for reservation %d: %w", reservationID, err)
	}

	if created {
		g.logger.Info("bill generated",
			"bill_id", bill.ID, "bill_number", bill.BillNumber, "reservation_id", reservationID, "total_amount", bill.TotalAmount)
		g.notify(model.NewBillingNotification(reservation.GuestID, bill, bill.CreatedAt))
	}
	return bill, nil
}

// MarkPaid は請求書の支払い状態を更新します
// Paid の場合は支払日時を記録し、予約を Paid にして Payment 通知を送ります
func (g *Generator) MarkPaid(ctx context.Context, billID int64, status string) (bill model.Bill, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "BillingGenerator.MarkPaid")
	defer func() { end(err) }()

	paymentStatus, err := model.ParsePaymentStatus(status)
	if err != nil {
		return model.Bill{}, err
	}

	bill, err = g.bills.Get(ctx, billID)
	if err != nil {
		return model.Bill{}, err
	}

	if paymentStatus != model.PaymentPaid {
		if err = g.bills.UpdatePayment(ctx, billID, paymentStatus, nil); err != nil {
			return model.Bill{}, fmt.Errorf("failed to update bill %d: %w", billID, err)
		}
		bill.PaymentStatus = paymentStatus
		bill.PaidAt = nil
		return bill, nil
	}

	if bill.PaymentStatus == model.PaymentPaid {
		return bill, nil
	}

	now := g.clock.Now()
	if err = g.bills.UpdatePayment(ctx, billID, model.PaymentPaid, &now); err != nil {
		return model.Bill{}, fmt.Errorf("failed to update bill %d: %w", billID, err)
	}
	bill.PaymentStatus = model.PaymentPaid
	bill.PaidAt = &now

	reservation, err := g.reservations.Get(ctx, bill.ReservationID)
	if err != nil {
		return model.Bill{}, fmt.Errorf("failed to load reservation %d for bill %d: %w", bill.ReservationID, billID, err)
	}
	if err = g.reservations.UpdateStatus(ctx, reservation.ID, model.ReservationPaid, now); err != nil {
		return model.Bill{}, fmt.Errorf("failed to mark reservation %d as paid: %w", reservation.ID, err)
	}

	g.logger.Info("bill paid", "bill_id", billID, "reservation_id", reservation.ID)
	g.notify(model.NewPaymentNotification(reservation.GuestID, bill, now))
	return bill, nil
}

// Get は請求書を返します
func (g *Generator) Get(ctx context.Context, billID int64) (model.Bill, error) {
	return g.bills.Get(ctx, billID)
}

// GetByReservation は予約に紐づく請求書を返します。作成はしません
func (g *Generator) GetByReservation(ctx context.Context, reservationID int64) (model.Bill, error) {
	return g.bills.GetByReservation(ctx, reservationID)
}

func (g *Generator) notify(n model.Notification) {
	if g.notifier == nil {
		return
	}
	if !g.notifier.Enqueue(n) {
		g.logger.Warn("notification queue closed, notification dropped", "user_id", n.UserID, "type", n.Type)
	}
}
