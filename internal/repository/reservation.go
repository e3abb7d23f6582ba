package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var reservationColumns = []any{
	"id", "reservation_number", "room_id", "guest_id", "check_in", "check_out", "guests",
	"total_amount", "status", "special_request", "created_at", "updated_at",
}

// ReservationRepositoryImpl はPostgreSQLによるReservationRepositoryの実装です
type ReservationRepositoryImpl struct {
	db *database.DB
}

// NewReservationRepository は新しいReservationRepositoryを作成します
func NewReservationRepository(db *database.DB) *ReservationRepositoryImpl {
	return &ReservationRepositoryImpl{db: db}
}

// Get は予約を1件取得します
func (r *ReservationRepositoryImpl) Get(ctx context.Context, id int64) (res model.Reservation, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationRepository.Get")
	defer func() { end(err) }()

	query, args, err := dialect.From("reservations").Select(reservationColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return model.Reservation{}, fmt.Errorf("failed to build reservation query: %w", err)
	}

	if err = r.db.GetContext(ctx, &res, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Reservation{}, model.ErrReservationNotFound
		}
		return model.Reservation{}, fmt.Errorf("failed to get reservation %d: %w", id, err)
	}
	return res, nil
}

// ListActiveByRoom はキャンセル以外で since より後にチェックアウトする予約を返します
func (r *ReservationRepositoryImpl) ListActiveByRoom(ctx context.Context, roomID int64, since time.Time) ([]model.Reservation, error) {
	ds := dialect.From("reservations").Select(reservationColumns...).Where(
		goqu.C("room_id").Eq(roomID),
		goqu.C("status").Neq(string(model.ReservationCancelled)),
		goqu.C("check_out").Gt(model.DateOf(since)),
	).Order(goqu.C("check_in").Asc())
	return r.list(ctx, "ReservationRepository.ListActiveByRoom", ds)
}

// ListByGuest はゲストの予約を新しい順に返します
func (r *ReservationRepositoryImpl) ListByGuest(ctx context.Context, guestID int64) ([]model.Reservation, error) {
	ds := dialect.From("reservations").Select(reservationColumns...).
		Where(goqu.C("guest_id").Eq(guestID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())
	return r.list(ctx, "ReservationRepository.ListByGuest", ds)
}

// ListByDateRange はチェックイン日が [start, end] に含まれる予約を返します
func (r *ReservationRepositoryImpl) ListByDateRange(ctx context.Context, start, end time.Time) ([]model.Reservation, error) {
	ds := dialect.From("reservations").Select(reservationColumns...).Where(
		goqu.C("check_in").Gte(model.DateOf(start)),
		goqu.C("check_in").Lte(model.DateOf(end)),
	).Order(goqu.C("check_in").Asc(), goqu.C("id").Asc())
	return r.list(ctx, "ReservationRepository.ListByDateRange", ds)
}

// ListByStatus は指定されたステータスの予約を返します
func (r *ReservationRepositoryImpl) ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	ds := dialect.From("reservations").Select(reservationColumns...).
		Where(goqu.C("status").Eq(string(status))).
		Order(goqu.C("check_in").Asc(), goqu.C("id").Asc())
	return r.list(ctx, "ReservationRepository.ListByStatus", ds)
}

func (r *ReservationRepositoryImpl) list(ctx context.Context, name string, ds *goqu.SelectDataset) (reservations []model.Reservation, err error) {
	ctx, end := utils.BeginSubsegment(ctx, name)
	defer func() { end(err) }()

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build reservation query: %w", err)
	}
	utils.AddMetadata(ctx, "query", query)

	if err = r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query reservations: %w", err)
	}
	return reservations, nil
}

// Create は客室ごとのアドバイザリロックを取得したうえで重複を再確認し、予約を登録します
// 同時に別プロセスから登録された場合も排他制約(reservations_no_overlap)で弾かれます
func (r *ReservationRepositoryImpl) Create(ctx context.Context, res *model.Reservation) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationRepository.Create")
	defer func() { end(err) }()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, res.RoomID); err != nil {
			return fmt.Errorf("failed to lock room %d: %w", res.RoomID, err)
		}

		var overlapping bool
		checkQuery := `
			SELECT EXISTS (
				SELECT 1
				FROM reservations
				WHERE room_id = $1
					AND status <> $2
					AND check_in < $4
					AND $3 < check_out
			)`
		if err := tx.GetContext(ctx, &overlapping, checkQuery,
			res.RoomID, string(model.ReservationCancelled), res.CheckIn, res.CheckOut); err != nil {
			return fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
		if overlapping {
			return model.ErrRoomUnavailable
		}

		insertQuery := `
			INSERT INTO reservations (
				reservation_number,
				room_id,
				guest_id,
				check_in,
				check_out,
				guests,
				total_amount,
				status,
				special_request,
				created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`
		if err := tx.QueryRowxContext(ctx, insertQuery,
			res.ReservationNumber,
			res.RoomID,
			res.GuestID,
			res.CheckIn,
			res.CheckOut,
			res.Guests,
			res.TotalAmount,
			string(res.Status),
			res.SpecialRequest,
			res.CreatedAt,
		).Scan(&res.ID); err != nil {
			return fmt.Errorf("failed to insert reservation: %w", classifyPQError(err))
		}
		return nil
	})
}

// UpdateStatus は予約のステータスを更新します
func (r *ReservationRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus, at time.Time) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "ReservationRepository.UpdateStatus")
	defer func() { end(err) }()

	query := `
		UPDATE reservations
		SET status = $1,
			updated_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", classifyPQError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrReservationNotFound
	}
	return nil
}
