package handler

import (
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/service/room"
)

type searchRoomsReq struct {
	CheckIn  string `query:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `query:"check_out" validate:"required,datetime=2006-01-02"`
	Guests   int    `query:"guests" validate:"omitempty,gte=1"`
	HotelID  int64  `query:"hotel_id" validate:"omitempty,gt=0"`
	RoomType string `query:"room_type" validate:"omitempty,max=50"`
}

type createReservationReq struct {
	RoomID         int64   `json:"room_id" validate:"required,gt=0"`
	CheckIn        string  `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut       string  `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests         int     `json:"guests" validate:"required,gte=1,lte=20"`
	SpecialRequest *string `json:"special_request" validate:"omitempty,max=500"`
}

type roomReq struct {
	HotelID    int64   `json:"hotel_id" validate:"required,gt=0"`
	RoomNumber string  `json:"room_number" validate:"required,max=20"`
	RoomType   string  `json:"room_type" validate:"required,max=50"`
	Capacity   int     `json:"capacity" validate:"required,gte=1,lte=20"`
	BasePrice  float64 `json:"base_price" validate:"gte=0"`
}

func (r roomReq) input() room.Input {
	return room.Input{
		HotelID:    r.HotelID,
		RoomNumber: r.RoomNumber,
		RoomType:   r.RoomType,
		Capacity:   r.Capacity,
		BasePrice:  r.BasePrice,
	}
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

type dateRangeReq struct {
	Start string `query:"start" validate:"required,datetime=2006-01-02"`
	End   string `query:"end" validate:"required,datetime=2006-01-02"`
}

type errorResp struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type healthResp struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
