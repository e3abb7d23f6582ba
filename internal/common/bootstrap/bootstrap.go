// Package bootstrap は各コマンドの起動処理で共通する初期化をまとめます
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
)

// NewLogger はJSON形式のロガーを作成し、デフォルトロガーにも設定します
// 環境変数[LOG_LEVEL]が debug の場合はデバッグログも出力します
func NewLogger(service string) *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", service)
	slog.SetDefault(logger)
	return logger
}

// ConfigureXRay はトレースが有効な場合にX-Rayを設定します
func ConfigureXRay(cfg *config.Config, logger *slog.Logger) error {
	if !cfg.EnableTracing {
		return nil
	}

	if err := xray.Configure(xray.Config{
		DaemonAddr:     getenv("AWS_XRAY_DAEMON_ADDRESS", "127.0.0.1:2000"),
		ServiceVersion: "1.0.0",
	}); err != nil {
		logger.Warn("failed to configure X-Ray, falling back to defaults", "err", err)
		// X-Ray設定失敗時はデフォルトの設定を使用
		if configErr := xray.Configure(xray.Config{}); configErr != nil {
			return fmt.Errorf("failed to configure default X-Ray settings: %w", configErr)
		}
	}
	os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
	return nil
}

// BeginSegment はトレースが有効な場合のみセグメントを開始します
// 返り値の関数でセグメントを閉じます
func BeginSegment(ctx context.Context, cfg *config.Config, name string, metadata map[string]any) (context.Context, func(error)) {
	if !cfg.EnableTracing {
		return ctx, func(error) {}
	}

	ctx, seg := xray.BeginSegment(ctx, name)
	for k, v := range metadata {
		if err := seg.AddMetadata(k, v); err != nil {
			slog.Warn("failed to add segment metadata", "key", k, "err", err)
		}
	}
	return ctx, func(err error) { seg.Close(err) }
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
