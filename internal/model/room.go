package model

import (
	"strings"
	"time"
)

// RoomStatus は客室の状態を表します
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomOccupied    RoomStatus = "Occupied"
	RoomMaintenance RoomStatus = "Maintenance"
)

// ParseRoomStatus は文字列を客室ステータスに変換します
func ParseRoomStatus(s string) (RoomStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available":
		return RoomAvailable, nil
	case "occupied":
		return RoomOccupied, nil
	case "maintenance":
		return RoomMaintenance, nil
	}
	return "", ErrInvalidStatus
}

// Room はホテルに所属する客室です
type Room struct {
	ID         int64      `json:"id" db:"id"`
	HotelID    int64      `json:"hotel_id" db:"hotel_id"`
	RoomNumber string     `json:"room_number" db:"room_number"`
	RoomType   string     `json:"room_type" db:"room_type"`
	Capacity   int        `json:"capacity" db:"capacity"`
	BasePrice  float64    `json:"base_price" db:"base_price"`
	Status     RoomStatus `json:"status" db:"status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// RoomSearch は空室検索の条件です
type RoomSearch struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	HotelID  *int64
	RoomType string
}
