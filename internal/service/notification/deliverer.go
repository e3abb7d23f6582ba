package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Deliverer は保存済みの通知を外部チャネルに届けます
type Deliverer interface {
	Deliver(ctx context.Context, record model.NotificationRecord) error
}

// DefaultDeliveryDelay は SimulatedDeliverer の既定の待ち時間です
const DefaultDeliveryDelay = 100 * time.Millisecond

// SimulatedDeliverer は外部送信の代わりに一定時間待つだけの Deliverer です
type SimulatedDeliverer struct {
	Delay time.Duration
}

// NewSimulatedDeliverer は新しいSimulatedDelivererを作成します
func NewSimulatedDeliverer(delay time.Duration) *SimulatedDeliverer {
	if delay < 0 {
		delay = DefaultDeliveryDelay
	}
	return &SimulatedDeliverer{Delay: delay}
}

func (d *SimulatedDeliverer) Deliver(ctx context.Context, _ model.NotificationRecord) error {
	if d.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publisher は NATS 接続のうち配信に使う部分です
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// NATSDeliverer は通知をJSONにして <prefix>.<type> に publish します
type NATSDeliverer struct {
	pub    Publisher
	prefix string
}

// NewNATSDeliverer は新しいNATSDelivererを作成します
func NewNATSDeliverer(pub Publisher, prefix string) *NATSDeliverer {
	if prefix == "" {
		prefix = "hotel.notifications"
	}
	return &NATSDeliverer{pub: pub, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject は通知種別ごとの配信先を返します
func (d *NATSDeliverer) Subject(typ model.NotificationType) string {
	return d.prefix + "." + strings.ToLower(string(typ))
}

func (d *NATSDeliverer) Deliver(ctx context.Context, record model.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := d.pub.Publish(d.Subject(record.Type), payload); err != nil {
		return fmt.Errorf("failed to publish notification %d: %w", record.ID, err)
	}
	return nil
}

// ConnectNATS は NATS に接続します。切断時は自動で再接続します
func ConnectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats %s: %w", url, err)
	}
	return conn, nil
}
