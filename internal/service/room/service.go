// Package room は客室の登録・更新・参照と手動での状態変更を提供します
package room

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// Service は客室を管理します
type Service struct {
	rooms  repository.RoomRepository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService は新しいServiceを作成します
func NewService(rooms repository.RoomRepository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.UTC{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{rooms: rooms, clock: clk, logger: logger}
}

// Input は客室の登録・更新で受け付ける属性です
type Input struct {
	HotelID    int64
	RoomNumber string
	RoomType   string
	Capacity   int
	BasePrice  float64
}

func (in Input) validate() error {
	switch {
	case in.HotelID <= 0:
		return fmt.Errorf("%w: hotel id must be positive", model.ErrInvalidRoom)
	case strings.TrimSpace(in.RoomNumber) == "":
		return fmt.Errorf("%w: room number is required", model.ErrInvalidRoom)
	case in.Capacity < 1:
		return fmt.Errorf("%w: capacity must be at least 1", model.ErrInvalidRoom)
	case in.BasePrice < 0:
		return fmt.Errorf("%w: base price must not be negative", model.ErrInvalidRoom)
	}
	return nil
}

// Create は客室を Available で登録します
func (s *Service) Create(ctx context.Context, in Input) (model.Room, error) {
	if err := in.validate(); err != nil {
		return model.Room{}, err
	}

	room := model.Room{
		HotelID:    in.HotelID,
		RoomNumber: strings.TrimSpace(in.RoomNumber),
		RoomType:   in.RoomType,
		Capacity:   in.Capacity,
		BasePrice:  model.RoundCents(in.BasePrice),
		Status:     model.RoomAvailable,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.rooms.Create(ctx, &room); err != nil {
		return model.Room{}, err
	}
	s.logger.Info("room created", "room_id", room.ID, "hotel_id", room.HotelID, "room_number", room.RoomNumber)
	return room, nil
}

// Update は客室の属性を更新します。状態は変更しません
// 料金の変更は作成済みの予約金額には影響しません
func (s *Service) Update(ctx context.Context, id int64, in Input) (model.Room, error) {
	if err := in.validate(); err != nil {
		return model.Room{}, err
	}

	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return model.Room{}, err
	}

	now := s.clock.Now()
	room.HotelID = in.HotelID
	room.RoomNumber = strings.TrimSpace(in.RoomNumber)
	room.RoomType = in.RoomType
	room.Capacity = in.Capacity
	room.BasePrice = model.RoundCents(in.BasePrice)
	room.UpdatedAt = &now

	if err := s.rooms.Update(ctx, room); err != nil {
		return model.Room{}, err
	}
	s.logger.Info("room updated", "room_id", room.ID)
	return room, nil
}

// Get は客室を返します
func (s *Service) Get(ctx context.Context, id int64) (model.Room, error) {
	return s.rooms.Get(ctx, id)
}

// ListByHotel はホテルの客室をID順に返します
func (s *Service) ListByHotel(ctx context.Context, hotelID int64) ([]model.Room, error) {
	rooms, err := s.rooms.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms for hotel %d: %w", hotelID, err)
	}
	return rooms, nil
}

// SetStatus は客室を Available または Maintenance に変更します
// Occupied はチェックインでのみ設定されるため、ここでは受け付けません
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (model.Room, error) {
	target, err := model.ParseRoomStatus(status)
	if err != nil {
		return model.Room{}, err
	}
	if target == model.RoomOccupied {
		return model.Room{}, fmt.Errorf("%w: rooms become occupied only through check-in", model.ErrInvalidTransition)
	}

	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return model.Room{}, err
	}
	if room.Status == target {
		return room, nil
	}

	now := s.clock.Now()
	if err := s.rooms.UpdateStatus(ctx, id, target, now); err != nil {
		return model.Room{}, fmt.Errorf("failed to update room %d: %w", id, err)
	}
	s.logger.Info("room status changed", "room_id", id, "from", room.Status, "to", target)

	room.Status = target
	room.UpdatedAt = &now
	return room, nil
}
