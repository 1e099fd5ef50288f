package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

// CommentRepository 评论仓库
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, reviewID, id int) (*model.Comment, error)
	List(ctx context.Context, reviewID int, page Page) ([]model.Comment, int64, error)
	Save(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id int) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Omit("Review", "Author").Create(comment).Error
}

// FindByID 查找属于指定评价的评论
func (r *commentRepository) FindByID(ctx context.Context, reviewID, id int) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND review_id = ?", id, reviewID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, reviewID int, page Page) ([]model.Comment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Comment{}).Where("review_id = ?", reviewID)
	return paginate[model.Comment](q, page, "pub_date DESC, id DESC", "Author")
}

func (r *commentRepository) Save(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Omit("Review", "Author").Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.Comment{}, id).Error
}
