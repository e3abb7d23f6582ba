// Package handler は予約エンジンをHTTPで公開する薄いechoハンドラです
package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/service/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/service/billing"
	"github.com/uma-arai/sbcntr-hotel/internal/service/notification"
	"github.com/uma-arai/sbcntr-hotel/internal/service/reservation"
	"github.com/uma-arai/sbcntr-hotel/internal/service/room"
)

// Handler はHTTPリクエストを各サービスに振り分けます
type Handler struct {
	Engine  *reservation.Engine
	Checker *availability.Checker
	Billing *billing.Generator
	Rooms   *room.Service
	Inbox   *notification.Inbox
	Clock   clock.Clock
	V       *validator.Validate
	Log     *slog.Logger
}

// NewServer はルーティングとミドルウェアを設定したechoを返します
// tracingName が空でなければリクエストごとにX-Rayのセグメントを作成します
func NewServer(h *Handler, tracingName string) *echo.Echo {
	if h.V == nil {
		h.V = validator.New()
	}
	if h.Log == nil {
		h.Log = slog.Default()
	}
	if h.Clock == nil {
		h.Clock = clock.UTC{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	registerMiddlewares(e, h.Log, tracingName)

	e.GET("/health", h.Health)

	e.GET("/rooms/available", h.SearchAvailableRooms)
	e.POST("/rooms", h.CreateRoom)
	e.PUT("/rooms/:id", h.UpdateRoom)
	e.PATCH("/rooms/:id/status", h.SetRoomStatus)

	e.POST("/reservations", h.CreateReservation, Identity())
	e.GET("/reservations/my", h.MyReservations, Identity())
	e.GET("/notifications/my", h.MyNotifications, Identity())

	e.GET("/reservations", h.ListReservationsByDate)
	e.GET("/reservations/:id", h.GetReservation)
	e.PATCH("/reservations/:id/status", h.UpdateReservationStatus)
	e.DELETE("/reservations/:id", h.CancelReservation)

	e.GET("/bills/reservation/:reservationId", h.GetBillForReservation)
	e.GET("/bills/:id", h.GetBill)
	e.PATCH("/bills/:id/payment-status", h.UpdatePaymentStatus)
	e.POST("/bills/:id/pay", h.PayBill)

	e.PUT("/notifications/:id/read", h.MarkNotificationRead)

	return e
}

// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResp{Status: "ok", Time: h.Clock.Now()})
}

// GET /rooms/available?check_in=2024-05-01&check_out=2024-05-03&guests=2
func (h *Handler) SearchAvailableRooms(c echo.Context) error {
	var req searchRoomsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid query"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	checkIn, checkOut, err := parseDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return badRequest(c, err)
	}
	search := model.RoomSearch{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   max(req.Guests, 1),
		RoomType: req.RoomType,
	}
	if req.HotelID > 0 {
		search.HotelID = &req.HotelID
	}

	rooms, err := h.Checker.SearchAvailableRooms(c.Request().Context(), search)
	if err != nil {
		return h.fail(c, "search rooms", err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// POST /rooms
func (h *Handler) CreateRoom(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	r, err := h.Rooms.Create(c.Request().Context(), req.input())
	if err != nil {
		return h.fail(c, "create room", err)
	}
	return c.JSON(http.StatusCreated, r)
}

// PUT /rooms/:id
func (h *Handler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	r, err := h.Rooms.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return h.fail(c, "update room", err)
	}
	return c.JSON(http.StatusOK, r)
}

// PATCH /rooms/:id/status
func (h *Handler) SetRoomStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	r, err := h.Rooms.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, "set room status", err)
	}
	return c.JSON(http.StatusOK, r)
}

// POST /reservations
func (h *Handler) CreateReservation(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}
	checkIn, checkOut, err := parseDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return badRequest(c, err)
	}

	res, err := h.Engine.CreateReservation(c.Request().Context(), reservation.CreateRequest{
		GuestID:        userID(c),
		RoomID:         req.RoomID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         req.Guests,
		SpecialRequest: req.SpecialRequest,
	})
	if err != nil {
		return h.fail(c, "create reservation", err)
	}
	return c.JSON(http.StatusCreated, res)
}

// GET /reservations/my
func (h *Handler) MyReservations(c echo.Context) error {
	list, err := h.Engine.ListByGuest(c.Request().Context(), userID(c))
	if err != nil {
		return h.fail(c, "list my reservations", err)
	}
	return c.JSON(http.StatusOK, list)
}

// GET /reservations?start=2024-05-01&end=2024-05-31
func (h *Handler) ListReservationsByDate(c echo.Context) error {
	var req dateRangeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid query"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}
	start, end, err := parseDates(req.Start, req.End)
	if err != nil {
		return badRequest(c, err)
	}

	list, err := h.Engine.ListByDateRange(c.Request().Context(), start, end)
	if err != nil {
		return h.fail(c, "list reservations by date", err)
	}
	return c.JSON(http.StatusOK, list)
}

// GET /reservations/:id
func (h *Handler) GetReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	res, err := h.Engine.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get reservation", err)
	}
	return c.JSON(http.StatusOK, res)
}

// PATCH /reservations/:id/status
func (h *Handler) UpdateReservationStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	res, err := h.Engine.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, "update reservation status", err)
	}
	return c.JSON(http.StatusOK, res)
}

// DELETE /reservations/:id
func (h *Handler) CancelReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	if _, err := h.Engine.CancelReservation(c.Request().Context(), id); err != nil {
		return h.fail(c, "cancel reservation", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /bills/reservation/:reservationId
func (h *Handler) GetBillForReservation(c echo.Context) error {
	id, err := pathID(c, "reservationId")
	if err != nil {
		return badRequest(c, err)
	}
	bill, err := h.Engine.GetOrCreateBillForReservation(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get bill for reservation", err)
	}
	return c.JSON(http.StatusOK, bill)
}

// GET /bills/:id
func (h *Handler) GetBill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	bill, err := h.Billing.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get bill", err)
	}
	return c.JSON(http.StatusOK, bill)
}

// PATCH /bills/:id/payment-status
func (h *Handler) UpdatePaymentStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResp{Message: "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return badRequest(c, err)
	}

	bill, err := h.Billing.MarkPaid(c.Request().Context(), id, req.Status)
	if err != nil {
		return h.fail(c, "update payment status", err)
	}
	return c.JSON(http.StatusOK, bill)
}

// POST /bills/:id/pay
func (h *Handler) PayBill(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	bill, err := h.Billing.MarkPaid(c.Request().Context(), id, string(model.PaymentPaid))
	if err != nil {
		return h.fail(c, "pay bill", err)
	}
	return c.JSON(http.StatusOK, bill)
}

// GET /notifications/my
func (h *Handler) MyNotifications(c echo.Context) error {
	list, err := h.Inbox.ListUnread(c.Request().Context(), userID(c))
	if err != nil {
		return h.fail(c, "list notifications", err)
	}
	return c.JSON(http.StatusOK, list)
}

// PUT /notifications/:id/read
func (h *Handler) MarkNotificationRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.Inbox.MarkRead(c.Request().Context(), id); err != nil {
		return h.fail(c, "mark notification read", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func parseDates(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", from)
	}
	end, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q", to)
	}
	return start, end, nil
}
