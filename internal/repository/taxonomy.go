package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

// TaxonomyRepository 分类 / 类型仓库，两者都以 slug 为查找键
type TaxonomyRepository[T any] interface {
	Create(ctx context.Context, item *T) error
	FindBySlug(ctx context.Context, slug string) (*T, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]T, error)
	List(ctx context.Context, search string, page Page) ([]T, int64, error)
	Save(ctx context.Context, item *T) error
	Delete(ctx context.Context, item *T) error
}

// TaxonPtr 约束 *Category / *Genre
type TaxonPtr[T any] interface {
	*T
	Base() *model.Taxon
}

type taxonomyRepository[T any, PT TaxonPtr[T]] struct {
	db *gorm.DB
	// detach 在删除前解除作品上的引用
	detach func(tx *gorm.DB, id int) error
}

func NewCategoryRepository(db *gorm.DB) TaxonomyRepository[model.Category] {
	return &taxonomyRepository[model.Category, *model.Category]{
		db: db,
		detach: func(tx *gorm.DB, id int) error {
			return tx.Model(&model.Title{}).Where("category_id = ?", id).Update("category_id", nil).Error
		},
	}
}

func NewGenreRepository(db *gorm.DB) TaxonomyRepository[model.Genre] {
	return &taxonomyRepository[model.Genre, *model.Genre]{
		db: db,
		detach: func(tx *gorm.DB, id int) error {
			return tx.Where("genre_id = ?", id).Delete(&model.GenreTitle{}).Error
		},
	}
}

// Create 创建
func (r *taxonomyRepository[T, PT]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindBySlug 根据 slug 查找，不存在时返回 nil
func (r *taxonomyRepository[T, PT]) FindBySlug(ctx context.Context, slug string) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindBySlugs 批量查找，结果可能少于入参
func (r *taxonomyRepository[T, PT]) FindBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	items := make([]T, 0, len(slugs))
	if len(slugs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Order("name ASC").Find(&items).Error
	return items, err
}

// List 按名称排序分页，search 匹配名称
func (r *taxonomyRepository[T, PT]) List(ctx context.Context, search string, page Page) ([]T, int64, error) {
	q := r.db.WithContext(ctx).Model(new(T))
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(search))
	}
	return paginate[T](q, page, "name ASC, id ASC")
}

// Save 保存
func (r *taxonomyRepository[T, PT]) Save(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除并解除作品引用
func (r *taxonomyRepository[T, PT]) Delete(ctx context.Context, item *T) error {
	id := PT(item).Base().ID
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.detach(tx, id); err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}
