package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mukamba/internal/pkg/response"
)

// ErrorLogger logs request errors and recovers from panics.
func ErrorLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				requestFields(c, start, logger).Error("panic recovered",
					zap.String("error", fmt.Sprint(recovered)),
					zap.Stack("stack"),
				)
				response.CustomError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal Server Error")
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					requestFields(c, start, logger).Error("http error")
				}
				return
			}

			for _, err := range c.Errors {
				fields := []zap.Field{zap.Error(err.Err), zap.Uint64("type", uint64(err.Type))}
				if err.Meta != nil {
					fields = append(fields, zap.Any("meta", err.Meta))
				}
				requestFields(c, start, logger).Error("request error", fields...)
			}
		}()

		c.Next()
	}
}

func requestFields(c *gin.Context, start time.Time, logger *zap.Logger) *zap.Logger {
	return logger.With(
		zap.Int("status", c.Writer.Status()),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("client_ip", c.ClientIP()),
		zap.String("agent_id", c.GetString("agent_id")),
		zap.String("role", c.GetString("role")),
		zap.String("request_id", c.GetString("request_id")),
		zap.Duration("latency", time.Since(start)),
	)
}
