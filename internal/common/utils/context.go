package utils

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout は RunWithTimeout が期限切れで打ち切ったことを表します
var ErrTimeout = errors.New("operation timed out")

// RunWithTimeout は指定時間内で処理を実行します
// 期限を超えた場合はコンテキストをキャンセルして ErrTimeout を返します
// timeout が0以下の場合は親コンテキストのみで制御します
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %v", ErrTimeout, timeout)
		}
		return ctx.Err()
	}
}
