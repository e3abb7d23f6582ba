// Package notification はゲストへの通知を非同期に配信します
package notification

import (
	"context"
	"sync"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Sender は通知を投入する側のインターフェースです
type Sender interface {
	Enqueue(n model.Notification) bool
}

// Queue は複数の生産者と1つの消費者で共有する通知キューです
// Enqueue はブロックせず、呼び出し元を失敗させません
type Queue struct {
	mu      sync.Mutex
	items   []model.Notification
	limit   int
	dropped int
	closed  bool
	signal  chan struct{}
}

// QueueOption はキューの設定を変更します
type QueueOption func(*Queue)

// WithLimit はキューの上限を設定します。上限を超えた場合は最も古い通知を破棄します
// 0以下は無制限です
func WithLimit(limit int) QueueOption {
	return func(q *Queue) {
		if limit > 0 {
			q.limit = limit
		}
	}
}

// NewQueue は新しいQueueを作成します
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{signal: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue は通知を末尾に追加します。Close 後は false を返します
func (q *Queue) Enqueue(n model.Notification) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, n)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Dequeue は先頭の通知を取り出します。空の場合は通知が届くか ctx が終わるまで待ちます
// Close 後にキューが空になった場合は ok=false を返します
func (q *Queue) Dequeue(ctx context.Context) (n model.Notification, ok bool, err error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			n = q.items[0]
			q.items[0] = model.Notification{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return n, true, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return model.Notification{}, false, nil
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return model.Notification{}, false, ctx.Err()
		}
	}
}

// Close は新しい通知の受け付けを止めます。残っている通知は Dequeue で取り出せます
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len は待機中の通知数を返します
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped は上限超過で破棄した通知数を返します
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
