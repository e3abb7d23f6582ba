package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var roomColumns = []any{
	"id", "hotel_id", "room_number", "room_type", "capacity", "base_price", "status", "created_at", "updated_at",
}

// RoomRepositoryImpl はPostgreSQLによるRoomRepositoryの実装です
type RoomRepositoryImpl struct {
	db *database.DB
}

// NewRoomRepository は新しいRoomRepositoryを作成します
func NewRoomRepository(db *database.DB) *RoomRepositoryImpl {
	return &RoomRepositoryImpl{db: db}
}

// Get は客室を1件取得します
func (r *RoomRepositoryImpl) Get(ctx context.Context, id int64) (room model.Room, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "RoomRepository.Get")
	defer func() { end(err) }()

	query, args, err := dialect.From("rooms").Select(roomColumns...).
		Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return model.Room{}, fmt.Errorf("failed to build room query: %w", err)
	}

	if err = r.db.GetContext(ctx, &room, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, model.ErrRoomNotFound
		}
		return model.Room{}, fmt.Errorf("failed to get room %d: %w", id, err)
	}
	return room, nil
}

// ListAll は全客室をID順に取得します
func (r *RoomRepositoryImpl) ListAll(ctx context.Context) ([]model.Room, error) {
	return r.list(ctx, "RoomRepository.ListAll", dialect.From("rooms").Select(roomColumns...))
}

// ListByHotel はホテルに属する客室を取得します
func (r *RoomRepositoryImpl) ListByHotel(ctx context.Context, hotelID int64) ([]model.Room, error) {
	return r.list(ctx, "RoomRepository.ListByHotel",
		dialect.From("rooms").Select(roomColumns...).Where(goqu.C("hotel_id").Eq(hotelID)))
}

// FindCandidates は空室検索の候補となる客室を取得します
func (r *RoomRepositoryImpl) FindCandidates(ctx context.Context, search model.RoomSearch) ([]model.Room, error) {
	ds := dialect.From("rooms").Select(roomColumns...).Where(
		goqu.C("status").Eq(string(model.RoomAvailable)),
		goqu.C("capacity").Gte(search.Guests),
	)
	if search.HotelID != nil {
		ds = ds.Where(goqu.C("hotel_id").Eq(*search.HotelID))
	}
	if search.RoomType != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.C("room_type")).Eq(strings.ToLower(search.RoomType)))
	}
	return r.list(ctx, "RoomRepository.FindCandidates", ds)
}

func (r *RoomRepositoryImpl) list(ctx context.Context, name string, ds *goqu.SelectDataset) (rooms []model.Room, err error) {
	ctx, end := utils.BeginSubsegment(ctx, name)
	defer func() { end(err) }()

	query, args, err := ds.Order(goqu.C("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build room query: %w", err)
	}
	utils.AddMetadata(ctx, "query", query)

	if err = r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	return rooms, nil
}

// UpdateStatus は客室の状態を更新します
func (r *RoomRepositoryImpl) UpdateStatus(ctx context.Context, id int64, status model.RoomStatus, at time.Time) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "RoomRepository.UpdateStatus")
	defer func() { end(err) }()

	query := `
		UPDATE rooms
		SET status = $1,
			updated_at = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}

func insertRoomSQL(room model.Room) (string, []any, error) {
	return dialect.Insert("rooms").Rows(goqu.Record{
		"hotel_id":    room.HotelID,
		"room_number": room.RoomNumber,
		"room_type":   room.RoomType,
		"capacity":    room.Capacity,
		"base_price":  room.BasePrice,
		"status":      string(room.Status),
		"created_at":  room.CreatedAt,
	}).Returning("id").Prepared(true).ToSQL()
}

func updateRoomSQL(room model.Room) (string, []any, error) {
	updatedAt := time.Now().UTC()
	if room.UpdatedAt != nil {
		updatedAt = *room.UpdatedAt
	}
	return dialect.Update("rooms").Set(goqu.Record{
		"hotel_id":    room.HotelID,
		"room_number": room.RoomNumber,
		"room_type":   room.RoomType,
		"capacity":    room.Capacity,
		"base_price":  room.BasePrice,
		"updated_at":  updatedAt,
	}).Where(goqu.C("id").Eq(room.ID)).Prepared(true).ToSQL()
}

// Create は客室を登録します
func (r *RoomRepositoryImpl) Create(ctx context.Context, room *model.Room) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "RoomRepository.Create")
	defer func() { end(err) }()

	query, args, err := insertRoomSQL(*room)
	if err != nil {
		return fmt.Errorf("failed to build room insert: %w", err)
	}

	if err = r.db.QueryRowxContext(ctx, query, args...).Scan(&room.ID); err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateRoom
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// Update は客室の属性を更新します
func (r *RoomRepositoryImpl) Update(ctx context.Context, room model.Room) (err error) {
	ctx, end := utils.BeginSubsegment(ctx, "RoomRepository.Update")
	defer func() { end(err) }()

	query, args, err := updateRoomSQL(room)
	if err != nil {
		return fmt.Errorf("failed to build room update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateRoom
		}
		return fmt.Errorf("failed to update room %d: %w", room.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrRoomNotFound
	}
	return nil
}
