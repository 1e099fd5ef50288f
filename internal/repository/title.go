package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

// TitleFilter 作品列表过滤条件，零值表示不过滤
type TitleFilter struct {
	Category string // 分类 slug
	Genre    string // 类型 slug
	Name     string // 名称包含，不区分大小写
	Year     int
}

// TitleRepository 作品仓库
type TitleRepository interface {
	Create(ctx context.Context, title *model.Title) error
	FindByID(ctx context.Context, id int) (*model.Title, error)
	List(ctx context.Context, filter TitleFilter, page Page) ([]model.Title, int64, error)
	Update(ctx context.Context, title *model.Title, genres []model.Genre, replaceGenres bool) error
	Delete(ctx context.Context, id int) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

// Create 创建作品及类型关联
func (r *titleRepository) Create(ctx context.Context, title *model.Title) error {
	return r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(title).Error
}

// FindByID 根据 ID 查找作品，预加载分类与类型
func (r *titleRepository) FindByID(ctx context.Context, id int) (*model.Title, error) {
	var title model.Title
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		First(&title, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &title, nil
}

// List 按过滤条件分页
func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page Page) ([]model.Title, int64, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&model.Title{})

	if filter.Category != "" {
		q = q.Where("category_id IN (?)",
			db.Model(&model.Category{}).Select("id").Where("slug = ?", filter.Category))
	}
	if filter.Genre != "" {
		q = q.Where("id IN (?)",
			db.Table("genre_titles").Select("genre_titles.title_id").
				Joins("JOIN genres ON genres.id = genre_titles.genre_id").
				Where("genres.slug = ?", filter.Genre))
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(filter.Name))
	}
	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}

	return paginate[model.Title](q, page, "name ASC, id ASC", "Category", "Genres")
}

// Update 保存作品字段，replaceGenres 为 true 时整体替换类型
func (r *titleRepository) Update(ctx context.Context, title *model.Title, genres []model.Genre, replaceGenres bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Category", "Genres").Save(title).Error; err != nil {
			return err
		}
		if !replaceGenres {
			return nil
		}
		if err := tx.Model(title).Association("Genres").Replace(genres); err != nil {
			return err
		}
		title.Genres = genres
		return nil
	})
}

// Delete 删除作品及其评价、评论
func (r *titleRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&model.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Title{}, id).Error
	})
}
