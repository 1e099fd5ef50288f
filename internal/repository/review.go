package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

// ReviewRepository 评价仓库
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, titleID, id int) (*model.Review, error)
	List(ctx context.Context, titleID int, page Page) ([]model.Review, int64, error)
	Exists(ctx context.Context, authorID, titleID int) (bool, error)
	Save(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id int) error
	AverageScores(ctx context.Context, titleIDs []int) (map[int]float64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create 创建评价
func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Omit("Title", "Author").Create(review).Error
}

// FindByID 查找属于指定作品的评价
func (r *reviewRepository) FindByID(ctx context.Context, titleID, id int) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND title_id = ?", id, titleID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// List 作品下的评价，最新在前
func (r *reviewRepository) List(ctx context.Context, titleID int, page Page) ([]model.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Review{}).Where("title_id = ?", titleID)
	return paginate[model.Review](q, page, "pub_date DESC, id DESC", "Author")
}

// Exists 用户是否已评价过该作品
func (r *reviewRepository) Exists(ctx context.Context, authorID, titleID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("author_id = ? AND title_id = ?", authorID, titleID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

// Save 保存评价
func (r *reviewRepository) Save(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Omit("Title", "Author").Save(review).Error
}

// Delete 删除评价及其评论
func (r *reviewRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Review{}, id).Error
	})
}

type titleAverage struct {
	TitleID int
	Average float64
}

// AverageScores 一次查询多个作品的平均分，没有评价的作品不在结果中
func (r *reviewRepository) AverageScores(ctx context.Context, titleIDs []int) (map[int]float64, error) {
	result := make(map[int]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return result, nil
	}

	var rows []titleAverage
	err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("title_id, AVG(score) AS average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.TitleID] = row.Average
	}
	return result, nil
}
