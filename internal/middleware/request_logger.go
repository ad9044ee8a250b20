package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxRequestIDKey = "request_id"
)

// RequestLogger はリクエストIDを振って、1リクエスト1行でログを出す。
func RequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(HeaderRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Set(CtxRequestIDKey, reqID)
			c.Response().Header().Set(HeaderRequestID, reqID)

			err := next(c)
			if err != nil {
				//ステータスを確定させるためにここでエラーハンドラを通す
				c.Error(err)
			}

			traceID := ""
			if sc := trace.SpanFromContext(c.Request().Context()).SpanContext(); sc.IsValid() {
				traceID = sc.TraceID().String()
			}

			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.String("trace_id", traceID),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				fields = append(fields, zap.Int64("user_id", uid))
			}

			if c.Response().Status >= 500 {
				logger.Error("HTTP Request", append(fields, zap.Error(err))...)
			} else {
				logger.Info("HTTP Request", fields...)
			}
			return nil
		}
	}
}
