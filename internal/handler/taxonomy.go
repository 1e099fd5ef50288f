package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
)

// TaxonomyHandler 分类与类型共用的处理器，按 slug 寻址
type TaxonomyHandler[T any, PT repository.TaxonPtr[T]] struct {
	h   *Handler
	svc *service.TaxonomyService[T, PT]
}

func newTaxonomyHandler[T any, PT repository.TaxonPtr[T]](h *Handler, svc *service.TaxonomyService[T, PT]) *TaxonomyHandler[T, PT] {
	return &TaxonomyHandler[T, PT]{h: h, svc: svc}
}

// List 列表，支持 ?search= 按名称搜索
func (t *TaxonomyHandler[T, PT]) List(c *gin.Context) {
	page, ok := pageParams(c)
	if !ok {
		return
	}
	items, total, err := t.svc.List(c.Request.Context(), c.Query("search"), page)
	if err != nil {
		t.h.respondError(c, err)
		return
	}
	paginated(c, items, total, page)
}

// Get 按 slug 获取
func (t *TaxonomyHandler[T, PT]) Get(c *gin.Context) {
	item, err := t.svc.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		t.h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Create 创建
func (t *TaxonomyHandler[T, PT]) Create(c *gin.Context) {
	var in service.TaxonInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := t.svc.Create(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		t.h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update 部分更新
func (t *TaxonomyHandler[T, PT]) Update(c *gin.Context) {
	var in service.TaxonInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := t.svc.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("slug"), in)
	if err != nil {
		t.h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete 删除
func (t *TaxonomyHandler[T, PT]) Delete(c *gin.Context) {
	if err := t.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("slug")); err != nil {
		t.h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
