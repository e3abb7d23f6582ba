package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// DefaultDeliveryTimeout は1件の配信にかける時間の上限です
const DefaultDeliveryTimeout = 5 * time.Second

// Dispatcher はキューから通知を1件ずつ取り出し、保存して配信します
// 失敗した通知はログに残して破棄し、再送はしません
type Dispatcher struct {
	queue     *Queue
	repo      repository.NotificationRepository
	deliverer Deliverer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDispatcher は新しいDispatcherを作成します
func NewDispatcher(queue *Queue, repo repository.NotificationRepository, deliverer Deliverer, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if deliverer == nil {
		deliverer = NewSimulatedDeliverer(DefaultDeliveryDelay)
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:     queue,
		repo:      repo,
		deliverer: deliverer,
		timeout:   timeout,
		logger:    logger,
	}
}

// Run は ctx がキャンセルされるかキューが閉じられて空になるまで通知を処理します
// 処理中の1件は ctx のキャンセル後も最後まで処理します
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("notification dispatcher started")
	defer d.logger.Info("notification dispatcher stopped")

	for {
		n, ok, err := d.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}

		d.process(context.WithoutCancel(ctx), n)
	}
}

func (d *Dispatcher) process(ctx context.Context, n model.Notification) {
	record, err := n.ToNotificationRecord()
	if err != nil {
		d.logger.Warn("invalid notification dropped", "user_id", n.UserID, "type", n.Type, "err", err)
		return
	}

	if err := d.repo.Create(ctx, record); err != nil {
		d.logger.Error("failed to save notification", "user_id", record.UserID, "type", record.Type, "err", err)
		return
	}

	err = utils.RunWithTimeout(ctx, d.timeout, func(ctx context.Context) error {
		return d.deliverer.Deliver(ctx, *record)
	})
	if err != nil {
		d.logger.Error("failed to deliver notification",
			"notification_id", record.ID, "user_id", record.UserID, "type", record.Type, "err", err)
		return
	}

	d.logger.Debug("notification delivered", "notification_id", record.ID, "user_id", record.UserID, "type", record.Type)
}
