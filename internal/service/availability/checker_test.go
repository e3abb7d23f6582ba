package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository/memory"
)

func day(d int) time.Time {
	return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, store *memory.Store, roomID int64, in, out int, status model.ReservationStatus) int64 {
	t.Helper()
	r := &model.Reservation{
		RoomID:   roomID,
		GuestID:  1,
		CheckIn:  day(in),
		CheckOut: day(out),
		Guests:   1,
		Status:   model.ReservationPending,
	}
	require.NoError(t, store.Reservations().Create(context.Background(), r))
	if status != model.ReservationPending {
		require.NoError(t, store.Reservations().UpdateStatus(context.Background(), r.ID, status, day(1)))
	}
	return r.ID
}

func TestChecker_IsAvailable(t *testing.T) {
	store := memory.NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2, BasePrice: 100})
	existing := seed(t, store, room.ID, 10, 13, model.ReservationConfirmed)
	seed(t, store, room.ID, 20, 22, model.ReservationCancelled)

	checker := NewChecker(store.Rooms(), store.Reservations())

	tests := []struct {
		name    string
		in, out int
		exclude *int64
		want    bool
	}{
		{name: "前に接している期間は空き", in: 8, out: 10, want: true},
		{name: "後ろに接している期間は空き", in: 13, out: 15, want: true},
		{name: "先頭が重なる", in: 9, out: 11, want: false},
		{name: "末尾が重なる", in: 12, out: 14, want: false},
		{name: "内側に含まれる", in: 11, out: 12, want: false},
		{name: "外側から包含する", in: 9, out: 14, want: false},
		{name: "キャンセル済みの予約は数えない", in: 20, out: 22, want: true},
		{name: "自分自身を除外すると空き", in: 10, out: 13, exclude: &existing, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.IsAvailable(context.Background(), room.ID, day(tt.in), day(tt.out), tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecker_IsAvailable_InvalidRange(t *testing.T) {
	store := memory.NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2})
	checker := NewChecker(store.Rooms(), store.Reservations())

	_, err := checker.IsAvailable(context.Background(), room.ID, day(5), day(5), nil)
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)

	_, err = checker.IsAvailable(context.Background(), room.ID, day(6), day(5), nil)
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)
}

func TestChecker_IsAvailable_IgnoresTimeOfDay(t *testing.T) {
	store := memory.NewStore()
	room := store.AddRoom(model.Room{RoomNumber: "101", Capacity: 2})
	seed(t, store, room.ID, 10, 12, model.ReservationPending)
	checker := NewChecker(store.Rooms(), store.Reservations())

	ok, err := checker.IsAvailable(context.Background(), room.ID,
		day(12).Add(15*time.Hour), day(14).Add(11*time.Hour), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChecker_SearchAvailableRooms(t *testing.T) {
	store := memory.NewStore()
	single := store.AddRoom(model.Room{HotelID: 1, RoomNumber: "101", RoomType: "Single", Capacity: 1, BasePrice: 80})
	double := store.AddRoom(model.Room{HotelID: 1, RoomNumber: "102", RoomType: "Double", Capacity: 2, BasePrice: 120})
	suite := store.AddRoom(model.Room{HotelID: 2, RoomNumber: "201", RoomType: "Suite", Capacity: 4, BasePrice: 300})
	store.AddRoom(model.Room{HotelID: 2, RoomNumber: "202", RoomType: "Suite", Capacity: 4, BasePrice: 300, Status: model.RoomMaintenance})

	seed(t, store, double.ID, 10, 12, model.ReservationConfirmed)

	checker := NewChecker(store.Rooms(), store.Reservations())
	hotel2 := int64(2)

	tests := []struct {
		name   string
		search model.RoomSearch
		want   []int64
	}{
		{
			name:   "予約済みとメンテナンス中の客室は除外",
			search: model.RoomSearch{CheckIn: day(10), CheckOut: day(11), Guests: 1},
			want:   []int64{single.ID, suite.ID},
		},
		{
			name:   "期間が重ならなければ予約済みの客室も候補",
			search: model.RoomSearch{CheckIn: day(12), CheckOut: day(13), Guests: 2},
			want:   []int64{double.ID, suite.ID},
		},
		{
			name:   "ホテルとタイプで絞り込み",
			search: model.RoomSearch{CheckIn: day(1), CheckOut: day(2), Guests: 1, HotelID: &hotel2, RoomType: "suite"},
			want:   []int64{suite.ID},
		},
		{
			name:   "定員を満たす客室がない",
			search: model.RoomSearch{CheckIn: day(1), CheckOut: day(2), Guests: 5},
			want:   []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := checker.SearchAvailableRooms(context.Background(), tt.search)
			require.NoError(t, err)
			got := make([]int64, 0, len(rooms))
			for _, r := range rooms {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
