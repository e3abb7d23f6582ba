package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository/memory"
	"github.com/uma-arai/sbcntr-hotel/internal/service/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/service/billing"
	"github.com/uma-arai/sbcntr-hotel/internal/service/notification"
	"github.com/uma-arai/sbcntr-hotel/internal/service/reservation"
	"github.com/uma-arai/sbcntr-hotel/internal/service/room"
)

type testServer struct {
	e     *echo.Echo
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.AddRoom(model.Room{HotelID: 1, RoomNumber: "101", RoomType: "Double", Capacity: 2, BasePrice: 100})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFixed(time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC))
	queue := notification.NewQueue()
	checker := availability.NewChecker(store.Rooms(), store.Reservations())
	gen := billing.NewGenerator(store.Bills(), store.Reservations(), queue, clk, logger)
	engine := reservation.NewEngine(reservation.Deps{
		Rooms:        store.Rooms(),
		Reservations: store.Reservations(),
		Checker:      checker,
		Billing:      gen,
		Notifier:     queue,
		Clock:        clk,
		Logger:       logger,
	}, reservation.Options{EnforceTransitions: true})

	h := &Handler{
		Engine:  engine,
		Checker: checker,
		Billing: gen,
		Rooms:   room.NewService(store.Rooms(), clk, logger),
		Inbox:   notification.NewInbox(store.Notifications()),
		Clock:   clk,
		Log:     logger,
	}
	return &testServer{e: NewServer(h, ""), store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler_CreateReservation(t *testing.T) {
	s := newTestServer(t)
	ok := `{"room_id":1,"check_in":"2024-05-10","check_out":"2024-05-12","guests":2}`

	tests := []struct {
		name       string
		body       string
		userID     string
		wantStatus int
		wantCode   string
	}{
		{name: "作成できる", body: ok, userID: "7", wantStatus: http.StatusCreated},
		{name: "同じ期間は競合", body: ok, userID: "8", wantStatus: http.StatusConflict, wantCode: "UNAVAILABLE"},
		{name: "ユーザーIDがない", body: ok, wantStatus: http.StatusUnauthorized},
		{
			name:       "日付の形式が不正",
			body:       `{"room_id":1,"check_in":"10/05/2024","check_out":"2024-05-12","guests":2}`,
			userID:     "7",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "チェックアウトが先",
			body:       `{"room_id":1,"check_in":"2024-05-20","check_out":"2024-05-19","guests":1}`,
			userID:     "7",
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_RANGE",
		},
		{
			name:       "客室がない",
			body:       `{"room_id":99,"check_in":"2024-05-20","check_out":"2024-05-21","guests":1}`,
			userID:     "7",
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/reservations", tt.body, tt.userID)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[errorResp](t, rec).Code)
			}
			if tt.wantStatus == http.StatusCreated {
				res := decode[model.Reservation](t, rec)
				assert.Equal(t, int64(7), res.GuestID)
				assert.Equal(t, 200.0, res.TotalAmount)
				assert.Equal(t, model.ReservationPending, res.Status)
			}
		})
	}
}

func TestHandler_StayLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/reservations",
		`{"room_id":1,"check_in":"2024-05-01","check_out":"2024-05-03","guests":2}`, "7")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[model.Reservation](t, rec)
	base := "/reservations/" + itoa(res.ID)

	rec = s.do(t, http.MethodPatch, base+"/status", `{"status":"Checked-out"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/status", `{"status":"Checked-in"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/status", `{"status":"CheckedOut"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ReservationCheckedOut, decode[model.Reservation](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/bills/reservation/"+itoa(res.ID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	bill := decode[model.Bill](t, rec)
	assert.Equal(t, 220.0, bill.TotalAmount)

	rec = s.do(t, http.MethodPatch, "/bills/"+itoa(bill.ID)+"/payment-status", `{"status":"Refunded"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/bills/"+itoa(bill.ID)+"/pay", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PaymentPaid, decode[model.Bill](t, rec).PaymentStatus)

	rec = s.do(t, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ReservationPaid, decode[model.Reservation](t, rec).Status)

	rec = s.do(t, http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, "/reservations/my", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Reservation](t, rec), 1)
}

func TestHandler_CancelAndSearch(t *testing.T) {
	s := newTestServer(t)
	s.store.AddRoom(model.Room{HotelID: 1, RoomNumber: "102", RoomType: "Single", Capacity: 1, BasePrice: 60})

	rec := s.do(t, http.MethodPost, "/reservations",
		`{"room_id":1,"check_in":"2024-05-10","check_out":"2024-05-12","guests":1}`, "7")
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[model.Reservation](t, rec)

	rec = s.do(t, http.MethodGet, "/rooms/available?check_in=2024-05-11&check_out=2024-05-13&guests=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]model.Room](t, rec)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].RoomNumber)

	rec = s.do(t, http.MethodDelete, "/reservations/"+itoa(res.ID), "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/reservations/"+itoa(res.ID), "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CANCELLED", decode[errorResp](t, rec).Code)

	rec = s.do(t, http.MethodGet, "/rooms/available?check_in=2024-05-11&check_out=2024-05-13", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Room](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/rooms/available?check_in=2024-05-11", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RoomStatus(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPatch, "/rooms/1/status", `{"status":"Maintenance"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoomMaintenance, decode[model.Room](t, rec).Status)

	rec = s.do(t, http.MethodPatch, "/rooms/1/status", `{"status":"Occupied"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPatch, "/rooms/abc/status", `{"status":"Available"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RoomInventory(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/rooms",
		`{"hotel_id":1,"room_number":"305","room_type":"Twin","capacity":2,"base_price":150}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Room](t, rec)
	assert.Equal(t, model.RoomAvailable, created.Status)

	// 登録した客室はそのまま予約できる
	rec = s.do(t, http.MethodPost, "/reservations",
		`{"room_id":`+itoa(created.ID)+`,"check_in":"2024-05-10","check_out":"2024-05-11","guests":2}`, "7")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 150.0, decode[model.Reservation](t, rec).TotalAmount)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "同じ部屋番号は登録できない",
			method:     http.MethodPost,
			path:       "/rooms",
			body:       `{"hotel_id":1,"room_number":"101","room_type":"Single","capacity":1,"base_price":80}`,
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_ROOM",
		},
		{
			name:       "定員がない",
			method:     http.MethodPost,
			path:       "/rooms",
			body:       `{"hotel_id":1,"room_number":"401","room_type":"Single","base_price":80}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "属性を更新できる",
			method:     http.MethodPut,
			path:       "/rooms/" + itoa(created.ID),
			body:       `{"hotel_id":1,"room_number":"305","room_type":"Suite","capacity":4,"base_price":300}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "存在しない客室は更新できない",
			method:     http.MethodPut,
			path:       "/rooms/999",
			body:       `{"hotel_id":1,"room_number":"999","room_type":"Single","capacity":1,"base_price":80}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[errorResp](t, rec).Code)
			}
		})
	}

	got, err := s.store.Rooms().Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Suite", got.RoomType)
	assert.Equal(t, 4, got.Capacity)
}

func TestHandler_Notifications(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	rec := &model.NotificationRecord{UserID: 7, Message: "hello", Type: model.NotificationTypeGeneral}
	require.NoError(t, s.store.Notifications().Create(ctx, rec))

	resp := s.do(t, http.MethodGet, "/notifications/my", "", "7")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]model.NotificationRecord](t, resp), 1)

	resp = s.do(t, http.MethodPut, "/notifications/"+itoa(rec.ID)+"/read", "", "")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = s.do(t, http.MethodGet, "/notifications/my", "", "7")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]model.NotificationRecord](t, resp))

	resp = s.do(t, http.MethodPut, "/notifications/999/read", "", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestHandler_Health(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[healthResp](t, rec).Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code model.ErrCode
		want int
	}{
		{model.CodeNotFound, http.StatusNotFound},
		{model.CodeInvalidRange, http.StatusBadRequest},
		{model.CodeInvalidRoom, http.StatusBadRequest},
		{model.CodeDuplicateRoom, http.StatusConflict},
		{model.CodeUnavailable, http.StatusConflict},
		{model.CodeInvalidTransition, http.StatusUnprocessableEntity},
		{model.CodeUnauthorized, http.StatusUnauthorized},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.code))
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
