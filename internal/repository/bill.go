package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var billColumns = []any{
	"id", "bill_number", "reservation_id", "room_charges", "tax_amount", "additional_charges",
	"total_amount", "payment_status", "created_at", "paid_at",
}

// BillRepositoryImpl はPostgreSQLによるBillRepositoryの実装です
type BillRepositoryImpl struct {
	db *database.DB
}

// NewBillRepository は新しいBillRepositoryを作成します
func NewBillRepository(db *database.DB) *BillRepositoryImpl {
	return &BillRepositoryImpl{db: db}
}

// Get は請求書を1件取得します
func (r *BillRepositoryImpl) Get(ctx context.Context, id int64) (model.Bill, error) {
	return r.getBy(ctx, "BillRepository.Get", goqu.C("id").Eq(id))
}

// GetByReservation は予約に紐づく請求書を取得します
func (r *BillRepositoryImpl) GetByReservation(ctx context.Context, reservationID int64) (model.Bill, error) {
	return r.getBy(ctx, "BillRepository.GetByReservation", goqu.C("reservation_id").Eq(reservationID))
}

func (r *BillRepositoryImpl) getBy(ctx context.Context, name string, cond goqu.Expression) (bill model.Bill, err error) {
	ctx, end := utils.BeginSubsegment(ctx, name)
	defer func() { end(err) }()

	query, args, err := dialect.From("bills").Select(billColumns...).Where(cond).Prepared(true).ToSQL()
	if err != nil {
		return model.Bill{}, fmt.Errorf("failed to build bill query: %w", err)
	}

	if err = r.db.GetContext(ctx, &bill, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Bill{}, model.ErrBillNotFound
		}
		return model.Bill{}, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// CreateIfAbsent は reservation_id の一意制約を使って請求書を1件だけ登録します
// 競合した場合は勝った側の請求書を b に読み込みます
func (r *BillRepositoryImpl) CreateIfAbsent(ctx context.Context, b *model.Bill) (created bool, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "BillRepository.CreateIfAbsent")
	defer func() { end(err) }()

	query := `
		INSERT INTO bills (
			bill_number,
			reservation_id,
			room_charges,
			tax_amount,
			additional_charges,
			total_amount,
			payment_status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reservation_id) DO NOTHING
		RETURNING id`

	var id int64
	err = r.db.QueryRowxContext(ctx, query,
		b.BillNumber,
		b.ReservationID,
		b.RoomCharges,
		b.TaxAmount,
		b.AdditionalCharges,
		b.TotalAmount,
		string(b.PaymentStatus),
		b.CreatedAt,
	).Scan(&id)
	switch {
	case err == nil:
		b.ID = id
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, getErr := r.GetByReservation(ctx, b.ReservationID)
		if getErr != nil {
			return false, fmt.Errorf("failed to load existing bill: %w", getErr)
		}
		*b = existing
		return false, nil
	default:
		return false, fmt.Errorf("failed to insert bill: %w", classifyPQError(err))
	}
}

// UpdatePayment は支払いステータスと支払日時を更新します
func (r *BillRepositoryImpl) UpdatePayment(ctx context.Context, id int64, status model.PaymentStatus, paidAt *time.Time) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "BillRepository.UpdatePayment")
	defer func() { end(err) }()

	query := `
		UPDATE bills
		SET payment_status = $1,
			paid_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), paidAt, id)
	if err != nil {
		return fmt.Errorf("failed to update bill payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrBillNotFound
	}
	return nil
}
