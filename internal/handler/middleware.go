package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// HeaderUserID は認証済みユーザーのIDを運ぶヘッダーです
	HeaderUserID = "X-User-ID"
	ctxUserID    = "user_id"
)

func registerMiddlewares(e *echo.Echo, logger *slog.Logger, tracingName string) {
	e.Use(middleware.Recover())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	if tracingName != "" {
		e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
			return xray.Handler(xray.NewFixedSegmentNamer(tracingName), next)
		}))
	}

	e.Use(Slog(logger))
}

// Slog はリクエストごとにアクセスログを出力します
func Slog(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			lat := time.Since(start).Milliseconds()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			logger.Info("http",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", lat,
				"req_id", rid,
				"ip", c.RealIP(),
			)
			return err
		}
	}
}

// Identity は上流の認証層が付与した X-User-ID を取り出します
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := strconv.ParseInt(c.Request().Header.Get(HeaderUserID), 10, 64)
			if err != nil || uid <= 0 {
				return c.JSON(http.StatusUnauthorized, errorResp{Message: "unauthenticated"})
			}
			c.Set(ctxUserID, uid)
			return next(c)
		}
	}
}

func userID(c echo.Context) int64 {
	uid, _ := c.Get(ctxUserID).(int64)
	return uid
}
