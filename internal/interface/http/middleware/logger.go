package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// slowRequestThreshold 超过该耗时的请求记为慢请求
const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
//
// 教学要点：
// 1. 每个请求生成唯一ID，客户端传了X-Request-ID则沿用
// 2. 记录方法、路径、状态码、耗时、客户端IP
// 3. 不记录请求体（入库单明细可能很大，Excel导入是文件）
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := GetOperatorID(c); id != 0 {
			fields = append(fields, zap.Uint("operator_id", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("HTTP请求", fields...)
		case latency > slowRequestThreshold:
			log.Warn("慢请求", fields...)
		default:
			log.Info("HTTP请求", fields...)
		}
	}
}

// Recovery panic恢复，记录堆栈后返回500
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		c.AbortWithStatus(500)
	})
}
