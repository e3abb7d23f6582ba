package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
)

// Job はバッチ処理の本体です
type Job interface {
	Run(ctx context.Context) error
}

// ErrInterrupted はシグナルでバッチ処理が中断されたことを表します
var ErrInterrupted = errors.New("batch process interrupted")

// Execute はタイムアウト付きでバッチ処理を実行し、失敗時は Step Functions にタスク失敗を通知します
// SIGINT/SIGTERM を受け取った場合は処理を中断して ErrInterrupted を返します
func Execute(ctx context.Context, cfg *config.Config, client SFNClient, job Job, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, timeout, job.Run)
	}()

	var err error
	select {
	case sig := <-sigChan:
		logger.Warn("received signal", "signal", sig.String())
		cancel()
		<-errChan
		err = ErrInterrupted
	case err = <-errChan:
	}

	if err == nil {
		logger.Info("batch process completed successfully")
		return nil
	}

	logger.Error("batch process failed", "err", err)
	// 中断後もタスク失敗は通知する
	if sendErr := SendTaskFailure(context.WithoutCancel(ctx), cfg, client, err); sendErr != nil {
		logger.Error("failed to send task failure", "err", sendErr)
	}
	return err
}
