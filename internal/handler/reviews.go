package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
)

// ListReviews 作品下的评价
func (h *Handler) ListReviews(c *gin.Context) {
	titleID, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	reviews, total, err := h.Reviews.List(c.Request.Context(), titleID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, reviews, total, page)
}

// GetReview 单条评价
func (h *Handler) GetReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	review, err := h.Reviews.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// CreateReview 创建评价
func (h *Handler) CreateReview(c *gin.Context) {
	titleID, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	review, err := h.Reviews.Create(c.Request.Context(), middleware.CallerFrom(c), titleID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// UpdateReview 部分更新评价
func (h *Handler) UpdateReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	review, err := h.Reviews.Update(c.Request.Context(), middleware.CallerFrom(c), titleID, reviewID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview 删除评价
func (h *Handler) DeleteReview(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	if err := h.Reviews.Delete(c.Request.Context(), middleware.CallerFrom(c), titleID, reviewID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments 评价下的评论
func (h *Handler) ListComments(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}
	comments, total, err := h.Comments.List(c.Request.Context(), titleID, reviewID, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, comments, total, page)
}

// GetComment 单条评论
func (h *Handler) GetComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	comment, err := h.Comments.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// CreateComment 创建评论
func (h *Handler) CreateComment(c *gin.Context) {
	titleID, reviewID, ok := reviewPath(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.Comments.Create(c.Request.Context(), middleware.CallerFrom(c), titleID, reviewID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment 部分更新评论
func (h *Handler) UpdateComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	comment, err := h.Comments.Update(c.Request.Context(), middleware.CallerFrom(c), titleID, reviewID, commentID, in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment 删除评论
func (h *Handler) DeleteComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c)
	if !ok {
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), middleware.CallerFrom(c), titleID, reviewID, commentID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewPath(c *gin.Context) (titleID, reviewID int, ok bool) {
	if titleID, ok = intParam(c, "title_id"); !ok {
		return
	}
	reviewID, ok = intParam(c, "review_id")
	return
}

func commentPath(c *gin.Context) (titleID, reviewID, commentID int, ok bool) {
	if titleID, reviewID, ok = reviewPath(c); !ok {
		return
	}
	commentID, ok = intParam(c, "comment_id")
	return
}
