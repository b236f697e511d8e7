package util

import (
	"net/http"
	"talentflow_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应，与 mock API 的列表格式一致
type PageResponse struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// Fail 返回错误码，data 中可带详情
func Fail(c *gin.Context, code int, errorCode, message string, data interface{}) {
	c.JSON(code, Response{
		Code:      code,
		Message:   message,
		ErrorCode: errorCode,
		Data:      data,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Fail(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Unprocessable 校验失败或文件被拒绝
func Unprocessable(c *gin.Context, errorCode, message string, data interface{}) {
	Fail(c, http.StatusUnprocessableEntity, errorCode, message, data)
}

// Unavailable 持久化失败，客户端可以重试
func Unavailable(c *gin.Context, errorCode string, err error, data interface{}) {
	logger.Log.Warn("Persistence failure", zap.String("code", errorCode), zap.Error(err))
	Fail(c, http.StatusServiceUnavailable, errorCode, err.Error(), data)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err), zap.String("path", c.FullPath()))
	InternalServerError(c)
}
