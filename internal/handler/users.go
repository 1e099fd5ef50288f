package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
)

// ListUsers 用户列表，支持 ?search= 按用户名搜索
func (h *Handler) ListUsers(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	users, total, err := h.Users.List(c.Request.Context(), middleware.CallerFrom(c), c.Query("search"), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, users, total, page)
}

// CreateUser 管理员创建用户
func (h *Handler) CreateUser(c *gin.Context) {
	var in service.UserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Users.Create(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser 按用户名获取
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser 管理员部分更新
func (h *Handler) UpdateUser(c *gin.Context) {
	var patch service.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := h.Users.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("username"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser 删除用户
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("username")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me 当前用户资料
func (h *Handler) Me(c *gin.Context) {
	user, err := h.Users.Me(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe 修改自己的资料，role 字段被忽略
func (h *Handler) UpdateMe(c *gin.Context) {
	var patch service.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	user, err := h.Users.UpdateMe(c.Request.Context(), middleware.CallerFrom(c), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
