package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/bootstrap"
	"github.com/uma-arai/sbcntr-hotel/internal/common/clock"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/handler"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/repository/memory"
	"github.com/uma-arai/sbcntr-hotel/internal/service/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/service/billing"
	"github.com/uma-arai/sbcntr-hotel/internal/service/notification"
	"github.com/uma-arai/sbcntr-hotel/internal/service/reservation"
	"github.com/uma-arai/sbcntr-hotel/internal/service/room"
)

const (
	projectName = "sbcntr-hotel"
)

type repositories struct {
	rooms         repository.RoomRepository
	reservations  repository.ReservationRepository
	bills         repository.BillRepository
	notifications repository.NotificationRepository
	close         func()
}

func main() {
	logger := bootstrap.NewLogger(projectName)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}
	if err := bootstrap.ConfigureXRay(cfg, logger); err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}

	repos, err := openRepositories(cfg, logger)
	if err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}
	defer repos.close()

	deliverer, closeDeliverer, err := newDeliverer(cfg)
	if err != nil {
		log.Fatal(utils.GetStackWithError(err))
	}
	defer closeDeliverer()

	clk := clock.UTC{}
	var queueOpts []notification.QueueOption
	if cfg.Notification.QueueLimit > 0 {
		queueOpts = append(queueOpts, notification.WithLimit(cfg.Notification.QueueLimit))
	}
	queue := notification.NewQueue(queueOpts...)
	dispatcher := notification.NewDispatcher(queue, repos.notifications, deliverer, cfg.Notification.Timeout, logger)

	checker := availability.NewChecker(repos.rooms, repos.reservations)
	generator := billing.NewGenerator(repos.bills, repos.reservations, queue, clk, logger)
	engine := reservation.NewEngine(reservation.Deps{
		Rooms:        repos.rooms,
		Reservations: repos.reservations,
		Checker:      checker,
		Billing:      generator,
		Notifier:     queue,
		Clock:        clk,
		Logger:       logger,
	}, reservation.Options{
		EnforceCapacity:    cfg.Booking.EnforceCapacity,
		EnforceTransitions: cfg.Booking.EnforceTransitions,
	})

	h := &handler.Handler{
		Engine:  engine,
		Checker: checker,
		Billing: generator,
		Rooms:   room.NewService(repos.rooms, clk, logger),
		Inbox:   notification.NewInbox(repos.notifications),
		Clock:   clk,
		Log:     logger,
	}
	tracingName := ""
	if cfg.EnableTracing {
		tracingName = projectName
	}
	e := handler.NewServer(h, tracingName)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := dispatcher.Run(dispatchCtx); err != nil {
			logger.Error("notification dispatcher stopped", "err", err)
		}
	}()

	go func() {
		logger.Info("starting server", "port", cfg.Port, "storage", cfg.Storage)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(utils.GetStackWithError(err))
		}
	}()

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("received signal, shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", "err", err)
	}

	// 受付を止めてから残りの通知を流し切る
	queue.Close()
	select {
	case <-dispatchDone:
	case <-ctx.Done():
		logger.Warn("notification queue was not drained before shutdown", "remaining", queue.Len())
		stopDispatch()
		<-dispatchDone
	}
	stopDispatch()
}

func openRepositories(cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		seedRooms(store)
		logger.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			rooms:         store.Rooms(),
			reservations:  store.Reservations(),
			bills:         store.Bills(),
			notifications: store.Notifications(),
			close:         func() {},
		}, nil
	default:
		db, err := database.NewDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(context.Background(), db); err != nil {
			db.Close()
			return nil, err
		}
		return &repositories{
			rooms:         repository.NewRoomRepository(db),
			reservations:  repository.NewReservationRepository(db),
			bills:         repository.NewBillRepository(db),
			notifications: repository.NewNotificationRepository(db),
			close:         func() { db.Close() },
		}, nil
	}
}

func newDeliverer(cfg *config.Config) (notification.Deliverer, func(), error) {
	switch cfg.Notification.Delivery {
	case config.DeliveryNATS:
		conn, err := notification.ConnectNATS(cfg.Notification.NATSURL, projectName)
		if err != nil {
			return nil, nil, err
		}
		return notification.NewNATSDeliverer(conn, cfg.Notification.SubjectPrefix), func() { conn.Drain() }, nil
	default:
		return notification.NewSimulatedDeliverer(cfg.Notification.Delay), func() {}, nil
	}
}

// seedRooms はインメモリ実行用の客室を登録します
func seedRooms(store *memory.Store) {
	rooms := []model.Room{
		{HotelID: 1, RoomNumber: "101", RoomType: "Single", Capacity: 1, BasePrice: 80},
		{HotelID: 1, RoomNumber: "102", RoomType: "Double", Capacity: 2, BasePrice: 120},
		{HotelID: 1, RoomNumber: "201", RoomType: "Twin", Capacity: 2, BasePrice: 130},
		{HotelID: 1, RoomNumber: "301", RoomType: "Suite", Capacity: 4, BasePrice: 300},
		{HotelID: 2, RoomNumber: "101", RoomType: "Double", Capacity: 2, BasePrice: 110},
	}
	for _, r := range rooms {
		store.AddRoom(r)
	}
}
