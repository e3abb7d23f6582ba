package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

var (
	_ repository.RoomRepository         = (*RoomRepository)(nil)
	_ repository.ReservationRepository  = (*ReservationRepository)(nil)
	_ repository.BillRepository         = (*BillRepository)(nil)
	_ repository.NotificationRepository = (*NotificationRepository)(nil)
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func newReservation(roomID int64, in, out int) *model.Reservation {
	return &model.Reservation{
		RoomID:   roomID,
		GuestID:  7,
		CheckIn:  day(in),
		CheckOut: day(out),
		Guests:   1,
		Status:   model.ReservationPending,
	}
}

func TestReservationRepository_CreateRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2})
	repo := store.Reservations()

	require.NoError(t, repo.Create(ctx, newReservation(room.ID, 1, 3)))

	tests := []struct {
		name    string
		in, out int
		wantErr error
	}{
		{name: "重なる期間は拒否", in: 2, out: 4, wantErr: model.ErrRoomUnavailable},
		{name: "包含する期間は拒否", in: 1, out: 5, wantErr: model.ErrRoomUnavailable},
		{name: "チェックアウト日からは予約可能", in: 3, out: 5, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, newReservation(room.ID, tt.in, tt.out))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestReservationRepository_CancelledDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2})
	repo := store.Reservations()

	first := newReservation(room.ID, 1, 3)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.UpdateStatus(ctx, first.ID, model.ReservationCancelled, day(1)))

	assert.NoError(t, repo.Create(ctx, newReservation(room.ID, 1, 3)))

	active, err := repo.ListActiveByRoom(ctx, room.ID, day(1))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReservationRepository_CreateUnknownRoom(t *testing.T) {
	store := NewStore()
	err := store.Reservations().Create(context.Background(), newReservation(99, 1, 2))
	assert.ErrorIs(t, err, model.ErrRoomNotFound)
}

func TestReservationRepository_ListByDateRange(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2})
	other := store.AddRoom(model.Room{RoomNumber: "102", Capacity: 2})
	repo := store.Reservations()

	require.NoError(t, repo.Create(ctx, newReservation(room.ID, 5, 6)))
	require.NoError(t, repo.Create(ctx, newReservation(other.ID, 2, 4)))
	require.NoError(t, repo.Create(ctx, newReservation(room.ID, 10, 12)))

	list, err := repo.ListByDateRange(ctx, day(2), day(5))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, day(2), list[0].CheckIn)
	assert.Equal(t, day(5), list[1].CheckIn)
}

func TestBillRepository_CreateIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bills()

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[int64]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := model.Bill{BillNumber: "BILL-" + string(rune('A'+i)), ReservationID: 1}
			ok, err := repo.CreateIfAbsent(ctx, &b)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				created++
			}
			ids[b.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)
}

func TestBillRepository_BillNumberCollisionIsConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Bills()

	first := model.Bill{BillNumber: "BILL-20240301-AAAA0000", ReservationID: 1}
	_, err := repo.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)

	second := model.Bill{BillNumber: "BILL-20240301-AAAA0000", ReservationID: 2}
	_, err = repo.CreateIfAbsent(ctx, &second)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestRoomRepository_FindCandidates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	hotel := int64(2)
	store.AddRoom(model.Room{HotelID: 1, RoomNumber: "101", RoomType: "Single", Capacity: 1})
	store.AddRoom(model.Room{HotelID: 1, RoomNumber: "102", RoomType: "Double", Capacity: 2})
	store.AddRoom(model.Room{HotelID: 2, RoomNumber: "201", RoomType: "Double", Capacity: 3})
	store.AddRoom(model.Room{HotelID: 2, RoomNumber: "202", RoomType: "Double", Capacity: 4, Status: model.RoomMaintenance})

	tests := []struct {
		name   string
		search model.RoomSearch
		want   []string
	}{
		{name: "定員で絞り込み", search: model.RoomSearch{Guests: 2}, want: []string{"102", "201"}},
		{name: "ホテルで絞り込み", search: model.RoomSearch{Guests: 1, HotelID: &hotel}, want: []string{"201"}},
		{name: "部屋タイプは大文字小文字を区別しない", search: model.RoomSearch{Guests: 1, RoomType: "single"}, want: []string{"101"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := store.Rooms().FindCandidates(ctx, tt.search)
			require.NoError(t, err)
			got := make([]string, 0, len(rooms))
			for _, r := range rooms {
				got = append(got, r.RoomNumber)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotificationRepository_Unread(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Notifications()

	older := &model.NotificationRecord{UserID: 1, Message: "a", CreatedAt: day(1)}
	newer := &model.NotificationRecord{UserID: 1, Message: "b", CreatedAt: day(2)}
	other := &model.NotificationRecord{UserID: 2, Message: "c", CreatedAt: day(2)}
	for _, n := range []*model.NotificationRecord{older, newer, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	list, err := repo.GetUnreadByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Message)

	require.NoError(t, repo.UpdateIsRead(ctx, newer.ID, true))
	list, err = repo.GetUnreadByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.UpdateIsRead(ctx, 999, true), model.ErrNotificationNotFound)
}

func TestRoomRepository_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	rooms := store.Rooms()

	room := &model.Room{HotelID: 1, RoomNumber: "101", RoomType: "Double", Capacity: 2, BasePrice: 100}
	require.NoError(t, rooms.Create(ctx, room))
	assert.NotZero(t, room.ID)
	assert.Equal(t, model.RoomAvailable, room.Status)

	tests := []struct {
		name    string
		create  model.Room
		wantErr error
	}{
		{name: "同じホテルの同じ部屋番号は登録できない", create: model.Room{HotelID: 1, RoomNumber: "101", Capacity: 1}, wantErr: model.ErrDuplicateRoom},
		{name: "別ホテルなら同じ部屋番号でも登録できる", create: model.Room{HotelID: 2, RoomNumber: "101", Capacity: 1}},
		{name: "同じホテルの別の部屋番号", create: model.Room{HotelID: 1, RoomNumber: "102", Capacity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.create
			err := rooms.Create(ctx, &r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	require.NoError(t, rooms.UpdateStatus(ctx, room.ID, model.RoomMaintenance, day(1)))

	updated := *room
	updated.RoomType = "Suite"
	updated.Capacity = 4
	require.NoError(t, rooms.Update(ctx, updated))

	got, err := rooms.Get(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suite", got.RoomType)
	assert.Equal(t, 4, got.Capacity)
	// 状態は Update では変わらない
	assert.Equal(t, model.RoomMaintenance, got.Status)

	updated.RoomNumber = "102"
	assert.ErrorIs(t, rooms.Update(ctx, updated), model.ErrDuplicateRoom)

	assert.ErrorIs(t, rooms.Update(ctx, model.Room{ID: 999, HotelID: 1, RoomNumber: "999"}), model.ErrRoomNotFound)
}
