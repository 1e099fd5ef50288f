package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/yamdb/internal/service"
)

// Signup 注册或重新发送确认码
func (h *Handler) Signup(c *gin.Context) {
	var in service.SignupInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.Auth.Signup(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Token 用确认码换取访问令牌
func (h *Handler) Token(c *gin.Context) {
	var in service.TokenInput
	if !bindJSON(c, &in) {
		return
	}
	tok, err := h.Auth.ExchangeCode(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}
