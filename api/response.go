package api

import (
	"errors"
	"net/http"
	"strconv"

	"familyfinance/repository"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Message string `json:"message" example:"Family not found"`
}

// OK 200 响应，body 为实体本身
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Message: message})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// StoreError 记录不存在返回 404 和 notFound，其余返回 500
func StoreError(c *gin.Context, err error, notFound, fallback string) {
	if errors.Is(err, repository.ErrNotFound) {
		NotFound(c, notFound)
		return
	}
	_ = c.Error(err)
	InternalError(c, SafeErrorMessage(err, fallback))
}

// queryInt 解析整数查询参数，缺省或非法时返回 def
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
