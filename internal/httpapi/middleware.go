package httpapi

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	requestIDContextKey = "request_id"
	maxRequestIDLength  = 128
)

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
			zap.String("request_id", RequestIDFromContext(context)),
		)
	}
}

// RequestID keeps an inbound X-Request-ID or assigns a fresh one, and echoes it
// on the response.
func RequestID() gin.HandlerFunc {
	return func(context *gin.Context) {
		requestID := strings.TrimSpace(context.GetHeader(RequestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		context.Set(requestIDContextKey, requestID)
		context.Header(RequestIDHeader, requestID)
		context.Next()
	}
}

func RequestIDFromContext(context *gin.Context) string {
	return context.GetString(requestIDContextKey)
}
