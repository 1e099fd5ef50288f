package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// respondError 统一把服务层错误映射为 HTTP 响应
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.FieldErrors(c, ve.Fields)
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c)
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid confirmation code"})
	case errors.Is(err, service.ErrNotAuthenticated):
		utils.Detail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, service.ErrPermissionDenied):
		utils.Detail(c, http.StatusForbidden, "You do not have permission to perform this action.")
	default:
		_ = c.Error(err)
		h.Log.Error("请求处理失败",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		utils.InternalServerError(c)
	}
}

// bindJSON 解析请求体，空请求体视为空对象
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		field := typeErr.Field
		if i := strings.IndexByte(field, '.'); i > 0 {
			field = field[:i]
		}
		utils.FieldErrors(c, map[string][]string{field: {incorrectType(typeErr)}})
	case errors.As(err, &syntaxErr):
		utils.FieldErrors(c, map[string][]string{
			service.NonFieldErrors: {fmt.Sprintf("JSON parse error - %s", syntaxErr.Error())},
		})
	default:
		utils.FieldErrors(c, map[string][]string{service.NonFieldErrors: {"Invalid data."}})
	}
	return false
}

func incorrectType(err *json.UnmarshalTypeError) string {
	switch err.Type.Kind().String() {
	case "int", "int64":
		return "A valid integer is required."
	case "string":
		return "Not a valid string."
	case "slice":
		return fmt.Sprintf("Expected a list of items but got type %q.", err.Value)
	}
	return "Incorrect type."
}

// MethodNotAllowed 返回 405 并设置 Allow 头
func MethodNotAllowed(allow ...string) gin.HandlerFunc {
	header := strings.Join(allow, ", ")
	return func(c *gin.Context) {
		if header != "" {
			c.Header("Allow", header)
		}
		utils.Detail(c, http.StatusMethodNotAllowed, fmt.Sprintf("Method %q not allowed.", c.Request.Method))
	}
}
