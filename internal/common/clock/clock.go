package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻の取得元です。テストでは固定時刻に差し替えます
type Clock interface {
	Now() time.Time
}

// UTC はプロセス共通のUTC時計です
type UTC struct{}

// Now は現在のUTC時刻を返します
func (UTC) Now() time.Time { return time.Now().UTC() }

// Fixed はテスト用の手動で進める時計です
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed は指定時刻で止まった時計を作成します
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

// Now は設定済みの時刻を返します
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set は時刻を変更します
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

// Advance は時刻を進めます
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
