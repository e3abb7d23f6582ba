// Package memory はテストとローカル実行用のインメモリストレージです
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Store は全エンティティを1つのミューテックスで保護します
type Store struct {
	mu sync.RWMutex

	rooms         map[int64]model.Room
	reservations  map[int64]model.Reservation
	bills         map[int64]model.Bill
	notifications map[int64]model.NotificationRecord

	nextRoomID         int64
	nextReservationID  int64
	nextBillID         int64
	nextNotificationID int64
}

// NewStore は空のストアを作成します
func NewStore() *Store {
	return &Store{
		rooms:         make(map[int64]model.Room),
		reservations:  make(map[int64]model.Reservation),
		bills:         make(map[int64]model.Bill),
		notifications: make(map[int64]model.NotificationRecord),
	}
}

// AddRoom は客室を登録します。ID が0の場合は採番します
func (s *Store) AddRoom(room model.Room) model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == 0 {
		s.nextRoomID++
		room.ID = s.nextRoomID
	} else if room.ID > s.nextRoomID {
		s.nextRoomID = room.ID
	}
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	s.rooms[room.ID] = room
	return room
}

// Rooms は客室リポジトリを返します
func (s *Store) Rooms() *RoomRepository { return &RoomRepository{s: s} }

// Reservations は予約リポジトリを返します
func (s *Store) Reservations() *ReservationRepository { return &ReservationRepository{s: s} }

// Bills は請求書リポジトリを返します
func (s *Store) Bills() *BillRepository { return &BillRepository{s: s} }

// Notifications は通知リポジトリを返します
func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

// RoomRepository はインメモリの客室リポジトリです
type RoomRepository struct{ s *Store }

// Get は客室を1件返します
func (r *RoomRepository) Get(_ context.Context, id int64) (model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return model.Room{}, model.ErrRoomNotFound
	}
	return room, nil
}

// ListAll は全客室をID順に返します
func (r *RoomRepository) ListAll(_ context.Context) ([]model.Room, error) {
	return r.filter(func(model.Room) bool { return true }), nil
}

// ListByHotel はホテルに属する客室をID順に返します
func (r *RoomRepository) ListByHotel(_ context.Context, hotelID int64) ([]model.Room, error) {
	return r.filter(func(room model.Room) bool { return room.HotelID == hotelID }), nil
}

// FindCandidates は状態・定員・ホテル・部屋タイプで絞り込んだ客室を返します
func (r *RoomRepository) FindCandidates(_ context.Context, search model.RoomSearch) ([]model.Room, error) {
	return r.filter(func(room model.Room) bool {
		if room.Status != model.RoomAvailable || room.Capacity < search.Guests {
			return false
		}
		if search.HotelID != nil && room.HotelID != *search.HotelID {
			return false
		}
		if search.RoomType != "" && !strings.EqualFold(room.RoomType, search.RoomType) {
			return false
		}
		return true
	}), nil
}

func (r *RoomRepository) filter(keep func(model.Room) bool) []model.Room {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rooms := make([]model.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		if keep(room) {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// UpdateStatus は客室の状態を更新します
func (r *RoomRepository) UpdateStatus(_ context.Context, id int64, status model.RoomStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Status = status
	room.UpdatedAt = &at
	r.s.rooms[id] = room
	return nil
}

// Create は客室を登録し、採番したIDを設定します
func (r *RoomRepository) Create(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.roomNumberTaken(room.HotelID, room.RoomNumber, 0) {
		return model.ErrDuplicateRoom
	}
	r.s.nextRoomID++
	room.ID = r.s.nextRoomID
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	r.s.rooms[room.ID] = *room
	return nil
}

// Update は客室の属性を更新します。状態と作成日時は保持します
func (r *RoomRepository) Update(_ context.Context, room model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.rooms[room.ID]
	if !ok {
		return model.ErrRoomNotFound
	}
	if r.s.roomNumberTaken(room.HotelID, room.RoomNumber, room.ID) {
		return model.ErrDuplicateRoom
	}
	room.Status = current.Status
	room.CreatedAt = current.CreatedAt
	r.s.rooms[room.ID] = room
	return nil
}

func (s *Store) roomNumberTaken(hotelID int64, number string, exclude int64) bool {
	for id, room := range s.rooms {
		if id != exclude && room.HotelID == hotelID && room.RoomNumber == number {
			return true
		}
	}
	return false
}

// ReservationRepository はインメモリの予約リポジトリです
type ReservationRepository struct{ s *Store }

// Get は予約を1件返します
func (r *ReservationRepository) Get(_ context.Context, id int64) (model.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return model.Reservation{}, model.ErrReservationNotFound
	}
	return res, nil
}

// ListActiveByRoom は since 以降にチェックアウトするキャンセル以外の予約を返します
func (r *ReservationRepository) ListActiveByRoom(_ context.Context, roomID int64, since time.Time) ([]model.Reservation, error) {
	since = model.DateOf(since)
	list := r.filter(func(res model.Reservation) bool {
		return res.RoomID == roomID && res.BlocksRoom() && res.CheckOut.After(since)
	})
	sort.Slice(list, func(i, j int) bool { return list[i].CheckIn.Before(list[j].CheckIn) })
	return list, nil
}

// Create はロック内で重複を再確認してから登録します
func (r *ReservationRepository) Create(_ context.Context, res *model.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[res.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	want := res.Range()
	for _, existing := range r.s.reservations {
		if existing.RoomID == res.RoomID && existing.BlocksRoom() && existing.Range().Overlaps(want) {
			return model.ErrRoomUnavailable
		}
	}

	r.s.nextReservationID++
	res.ID = r.s.nextReservationID
	r.s.reservations[res.ID] = *res
	return nil
}

// UpdateStatus は予約のステータスを更新します
func (r *ReservationRepository) UpdateStatus(_ context.Context, id int64, status model.ReservationStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	res.Status = status
	res.UpdatedAt = &at
	r.s.reservations[id] = res
	return nil
}

// ListByGuest は宿泊者の予約を新しい順に返します
func (r *ReservationRepository) ListByGuest(_ context.Context, guestID int64) ([]model.Reservation, error) {
	list := r.filter(func(res model.Reservation) bool { return res.GuestID == guestID })
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// ListByDateRange はチェックイン日が期間内の予約を返します
func (r *ReservationRepository) ListByDateRange(_ context.Context, start, end time.Time) ([]model.Reservation, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	list := r.filter(func(res model.Reservation) bool {
		return !res.CheckIn.Before(start) && !res.CheckIn.After(end)
	})
	sortByCheckIn(list)
	return list, nil
}

// ListByStatus は指定したステータスの予約を返します
func (r *ReservationRepository) ListByStatus(_ context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	list := r.filter(func(res model.Reservation) bool { return res.Status == status })
	sortByCheckIn(list)
	return list, nil
}

func (r *ReservationRepository) filter(keep func(model.Reservation) bool) []model.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]model.Reservation, 0)
	for _, res := range r.s.reservations {
		if keep(res) {
			list = append(list, res)
		}
	}
	return list
}

func sortByCheckIn(list []model.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CheckIn.Equal(list[j].CheckIn) {
			return list[i].CheckIn.Before(list[j].CheckIn)
		}
		return list[i].ID < list[j].ID
	})
}

// BillRepository はインメモリの請求書リポジトリです
type BillRepository struct{ s *Store }

// Get は請求書を1件返します
func (r *BillRepository) Get(_ context.Context, id int64) (model.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bills[id]
	if !ok {
		return model.Bill{}, model.ErrBillNotFound
	}
	return b, nil
}

// GetByReservation は予約に紐づく請求書を返します
func (r *BillRepository) GetByReservation(_ context.Context, reservationID int64) (model.Bill, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if b, ok := r.s.billByReservation(reservationID); ok {
		return b, nil
	}
	return model.Bill{}, model.ErrBillNotFound
}

// CreateIfAbsent は予約に請求書がなければ登録します。既にあれば既存の請求書を b に設定します
func (r *BillRepository) CreateIfAbsent(_ context.Context, b *model.Bill) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.billByReservation(b.ReservationID); ok {
		*b = existing
		return false, nil
	}
	for _, existing := range r.s.bills {
		if existing.BillNumber == b.BillNumber {
			return false, fmt.Errorf("%w: bill number %s", utils.ErrConflict, b.BillNumber)
		}
	}

	r.s.nextBillID++
	b.ID = r.s.nextBillID
	r.s.bills[b.ID] = *b
	return true, nil
}

// UpdatePayment は支払い状態と支払日時を更新します
func (r *BillRepository) UpdatePayment(_ context.Context, id int64, status model.PaymentStatus, paidAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bills[id]
	if !ok {
		return model.ErrBillNotFound
	}
	b.PaymentStatus = status
	b.PaidAt = paidAt
	r.s.bills[id] = b
	return nil
}

func (s *Store) billByReservation(reservationID int64) (model.Bill, bool) {
	for _, b := range s.bills {
		if b.ReservationID == reservationID {
			return b, true
		}
	}
	return model.Bill{}, false
}

// NotificationRepository はインメモリの通知リポジトリです
type NotificationRepository struct{ s *Store }

// Create は通知を保存し、採番したIDを設定します
func (r *NotificationRepository) Create(_ context.Context, record *model.NotificationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextNotificationID++
	record.ID = r.s.nextNotificationID
	r.s.notifications[record.ID] = *record
	return nil
}

// GetUnreadByUserID はユーザーの未読通知を新しい順に返します
func (r *NotificationRepository) GetUnreadByUserID(_ context.Context, userID int64) ([]model.NotificationRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	records := make([]model.NotificationRecord, 0)
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			records = append(records, n)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

// UpdateIsRead は通知の既読状態を更新します
func (r *NotificationRepository) UpdateIsRead(_ context.Context, id int64, isRead bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return model.ErrNotificationNotFound
	}
	n.IsRead = isRead
	r.s.notifications[id] = n
	return nil
}
