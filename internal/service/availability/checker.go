// Package availability は客室の空き状況を判定します
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// Checker は予約の重なりから客室の空きを判定します。読み取りのみを行います
type Checker struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
}

// NewChecker は新しいCheckerを作成します
func NewChecker(rooms repository.RoomRepository, reservations repository.ReservationRepository) *Checker {
	return &Checker{
		rooms:        rooms,
		reservations: reservations,
	}
}

// IsAvailable は [checkIn, checkOut) に重なる有効な予約がなければ true を返します
// excludeReservationID に指定した予約は比較から除外します
func (c *Checker) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeReservationID *int64) (ok bool, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "AvailabilityChecker.IsAvailable")
	defer func() { end(err) }()

	want, err := model.NewDateRange(checkIn, checkOut)
	if err != nil {
		return false, err
	}

	active, err := c.reservations.ListActiveByRoom(ctx, roomID, want.CheckIn)
	if err != nil {
		return false, fmt.Errorf("failed to list reservations for room %d: %w", roomID, err)
	}

	for _, r := range active {
		if !r.BlocksRoom() {
			continue
		}
		if excludeReservationID != nil && r.ID == *excludeReservationID {
			continue
		}
		if r.Range().Overlaps(want) {
			return false, nil
		}
	}
	return true, nil
}

// SearchAvailableRooms は条件を満たし、期間中に空いている客室をID順で返します
func (c *Checker) SearchAvailableRooms(ctx context.Context, search model.RoomSearch) (rooms []model.Room, err error) {
	ctx, end := utils.BeginSubsegment(ctx, "AvailabilityChecker.SearchAvailableRooms")
	defer func() { end(err) }()

	if _, err = model.NewDateRange(search.CheckIn, search.CheckOut); err != nil {
		return nil, err
	}

	candidates, err := c.rooms.FindCandidates(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate rooms: %w", err)
	}

	rooms = make([]model.Room, 0, len(candidates))
	for _, room := range candidates {
		ok, err := c.IsAvailable(ctx, room.ID, search.CheckIn, search.CheckOut, nil)
		if err != nil {
			return nil, err
		}
		if ok {
			rooms = append(rooms, room)
		}
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}
