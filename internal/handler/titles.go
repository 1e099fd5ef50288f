package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// ListTitles 作品列表，支持 category / genre / name / year 过滤
func (h *Handler) ListTitles(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	filter := repository.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			utils.FieldErrors(c, map[string][]string{"year": {"Enter a number."}})
			return
		}
		filter.Year = year
	}

	titles, total, err := h.Titles.List(c.Request.Context(), filter, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, titles, total, page)
}

// GetTitle 作品详情
func (h *Handler) GetTitle(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	title, err := h.Titles.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// CreateTitle 创建作品
func (h *Handler) CreateTitle(c *gin.Context) {
	var in service.TitleInput
	if !bindJSON(c, &in) {
		return
	}
	title, err := h.Titles.Create(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, title)
}

// UpdateTitle 部分更新作品
func (h *Handler) UpdateTitle(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	var in service.TitleInput
	if !bindJSON(c, &in) {
		return
	}
	title, err := h.Titles.Update(c.Request.Context(), middleware.CallerFrom(c), id, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// DeleteTitle 删除作品
func (h *Handler) DeleteTitle(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	if err := h.Titles.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
