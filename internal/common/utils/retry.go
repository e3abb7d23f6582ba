package utils

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

// ErrConflict はストレージ側で検出した一時的な競合です
// 一意制約の衝突(採番の重複)やシリアライズ失敗など、やり直せば成功しうるものに限ります
var ErrConflict = errors.New("transient storage conflict")

// ErrInvalidMaxAttempts はリトライ回数が0以下の場合に返されます
var ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

// RetryableFunc はリトライ対象の処理です
type RetryableFunc func(ctx context.Context) error

type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

// RetryOption はリトライ設定を変更します
type RetryOption func(*retryConfig) error

// WithMaxAttempts は最大試行回数を設定します
func WithMaxAttempts(attempts int) RetryOption {
	return func(c *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay は指数バックオフの初期待ち時間を設定します
func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) error {
		if d < 0 {
			d = 0
		}
		c.baseDelay = d
		return nil
	}
}

// RetryOnConflict は ErrConflict の場合のみ指数バックオフで再実行します
// それ以外のエラーは即座に返します
func RetryOnConflict(ctx context.Context, fn RetryableFunc, options ...RetryOption) error {
	cfg := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}
	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // jitter only
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrConflict) {
			return lastErr
		}
	}
	return lastErr
}
