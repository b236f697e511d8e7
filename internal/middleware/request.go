package middleware

import (
	"net/http"
	"regexp"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,63}$`)

// RequestLogger 记录每个请求的状态码和耗时
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Log.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}

// Recovery 把 panic 转为500响应并记录堆栈
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				util.InternalServerError(c)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// JobIDGuard 拒绝 :jobId 路径参数不合法的请求
func JobIDGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jobIDPattern.MatchString(c.Param("jobId")) {
			util.Fail(c, http.StatusBadRequest, util.CodeInvalidOperation, util.ErrInvalidJobID.Error(), nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
