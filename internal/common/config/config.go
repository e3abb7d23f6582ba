package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
)

// Storage は永続化先の種類です
type Storage string

const (
	StoragePostgres Storage = "postgres"
	StorageMemory   Storage = "memory"
)

// Delivery は通知の外部配信チャネルです
type Delivery string

const (
	DeliverySimulated Delivery = "simulated"
	DeliveryNATS      Delivery = "nats"
)

type Config struct {
	// Env は実行環境です。LOCAL の場合は Step Functions への通知を行いません
	Env     string
	Port    string
	Storage Storage
	DB      database.Config

	Booking struct {
		// EnforceCapacity が有効な場合、宿泊人数が定員を超える予約を拒否します
		EnforceCapacity bool
		// EnforceTransitions が有効な場合、状態遷移表にない遷移を拒否します
		EnforceTransitions bool
	}

	Notification struct {
		QueueLimit    int
		Delivery      Delivery
		Delay         time.Duration
		Timeout       time.Duration
		NATSURL       string
		SubjectPrefix string
	}

	SFN struct {
		TaskToken string
	}
	EnableTracing bool
}

// LoadConfig は設定を読み込みます
// カレントディレクトリに .env があれば先に環境変数へ反映します
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &Config{
		Env:     os.Getenv("ENV"),
		Port:    getEnvOrDefault("APP_PORT", "8080"),
		Storage: Storage(strings.ToLower(getEnvOrDefault("STORAGE", string(StoragePostgres)))),
		DB: database.Config{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvAsIntOrDefault("DB_PORT", 5432),
			UserName: getEnvOrDefault("DB_USERNAME", "sbcntrapp"),
			Password: getEnvOrDefault("DB_PASSWORD", "password"),
			DBName:   getEnvOrDefault("DB_NAME", "sbcntrhotel"),
		},
	}

	// 定員チェックは既定では無効
	cfg.Booking.EnforceCapacity = getEnvAsBoolOrDefault("ENFORCE_CAPACITY", false)
	cfg.Booking.EnforceTransitions = getEnvAsBoolOrDefault("ENFORCE_TRANSITIONS", true)

	cfg.Notification.QueueLimit = getEnvAsIntOrDefault("NOTIFICATION_QUEUE_LIMIT", 0)
	cfg.Notification.Delivery = Delivery(strings.ToLower(getEnvOrDefault("NOTIFICATION_DELIVERY", string(DeliverySimulated))))
	cfg.Notification.Delay = getEnvAsDurationOrDefault("NOTIFICATION_DELAY", 100*time.Millisecond)
	cfg.Notification.Timeout = getEnvAsDurationOrDefault("NOTIFICATION_TIMEOUT", 5*time.Second)
	cfg.Notification.NATSURL = getEnvOrDefault("NATS_URL", "nats://127.0.0.1:4222")
	cfg.Notification.SubjectPrefix = getEnvOrDefault("NATS_SUBJECT_PREFIX", "hotel.notifications")

	cfg.SFN.TaskToken = os.Getenv("SFN_TASK_TOKEN")

	// 環境変数[SBCNTR_ENABLE_TRACING]を見てトレースを有効にする。対応しているTracingはAWS_XRAYのみ。
	// 環境変数[AWS_XRAY_SDK_DISABLED]がtrueの場合は必ずトレースを無効にする。
	enableKey := os.Getenv("SBCNTR_ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	slog.Debug("environment variable is not set, using default value", "key", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		slog.Warn("environment variable is not an integer, using default value", "key", key)
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		slog.Warn("environment variable is not a boolean, using default value", "key", key)
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("environment variable is not a duration, using default value", "key", key)
	}
	return defaultValue
}

// IsLocal はローカル実行かどうかを返します
func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "LOCAL")
}

// Check if SDK is disabled
func sdkDisabled() bool {
	disableKey := os.Getenv("AWS_XRAY_SDK_DISABLED")
	return strings.ToLower(disableKey) == "true"
}
