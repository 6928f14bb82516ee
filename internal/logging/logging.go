// Package logging initializes the zap logger and the request log middleware.
package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextKey is the gin context key under which the request-scoped logger is
// stored.
const ContextKey = "logger"

// New builds a logger. Release mode gets structured JSON; anything else gets
// colorful development output.
func New(mode, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if mode == "release" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	return cfg.Build()
}

// FromContext returns the request-scoped logger, falling back to the given
// base logger.
func FromContext(c *gin.Context, base *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ContextKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return base
}

// Middleware logs each HTTP request after it completes and stores a
// request-scoped logger tagged with the request id in the gin context.
func Middleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.Writer.Header().Get("X-Request-ID")
		ctxLogger := logger.With(zap.String("request_id", requestID))
		c.Set(ContextKey, ctxLogger)

		c.Next()

		latency := time.Since(start)
		fields := []zapcore.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			ctxLogger.Error("HTTP request failed", fields...)
		} else {
			ctxLogger.Info("HTTP request completed", fields...)
		}
	}
}
