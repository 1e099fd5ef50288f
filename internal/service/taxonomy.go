package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
)

// TaxonInput 分类 / 类型的创建与部分更新
type TaxonInput struct {
	Name *string `json:"name" validate:"required,notblank,max=256"`
	Slug *string `json:"slug" validate:"required,max=50,slug"`
}

type taxonPatch struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=256"`
	Slug *string `json:"slug" validate:"omitempty,max=50,slug"`
}

// TaxonomyService 分类与类型共用的服务，仅管理员可写
type TaxonomyService[T any, PT repository.TaxonPtr[T]] struct {
	repo   repository.TaxonomyRepository[T]
	policy permission.Policy
}

// NewCategoryService 分类服务
func NewCategoryService(repos *repository.Repositories) *TaxonomyService[model.Category, *model.Category] {
	return &TaxonomyService[model.Category, *model.Category]{repo: repos.Category, policy: permission.IsAdminOrReadOnly{}}
}

// NewGenreService 类型服务
func NewGenreService(repos *repository.Repositories) *TaxonomyService[model.Genre, *model.Genre] {
	return &TaxonomyService[model.Genre, *model.Genre]{repo: repos.Genre, policy: permission.IsAdminOrReadOnly{}}
}

// List 按名称搜索
func (s *TaxonomyService[T, PT]) List(ctx context.Context, search string, page repository.Page) ([]T, int64, error) {
	return s.repo.List(ctx, search, page)
}

// Get 按 slug 获取
func (s *TaxonomyService[T, PT]) Get(ctx context.Context, slug string) (*T, error) {
	item, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// Create 创建
func (s *TaxonomyService[T, PT]) Create(ctx context.Context, caller permission.Caller, in TaxonInput) (*T, error) {
	if err := permission.Authorize(s.policy, caller, permission.Create, nil); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.checkSlug(ctx, *in.Slug, 0); err != nil {
		return nil, err
	}

	item := new(T)
	base := PT(item).Base()
	base.Name, base.Slug = *in.Name, *in.Slug
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, slugViolation(err)
	}
	return item, nil
}

// Update 部分更新
func (s *TaxonomyService[T, PT]) Update(ctx context.Context, caller permission.Caller, slug string, in TaxonInput) (*T, error) {
	if err := permission.Authorize(s.policy, caller, permission.Update, nil); err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(taxonPatch(in)); err != nil {
		return nil, err
	}

	base := PT(item).Base()
	if in.Slug != nil && *in.Slug != base.Slug {
		if err := s.checkSlug(ctx, *in.Slug, base.ID); err != nil {
			return nil, err
		}
		base.Slug = *in.Slug
	}
	if in.Name != nil {
		base.Name = *in.Name
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, slugViolation(err)
	}
	return item, nil
}

// Delete 删除，引用它的作品会被解除关联
func (s *TaxonomyService[T, PT]) Delete(ctx context.Context, caller permission.Caller, slug string) error {
	if err := permission.Authorize(s.policy, caller, permission.Delete, nil); err != nil {
		return err
	}
	item, err := s.Get(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, item)
}

func (s *TaxonomyService[T, PT]) checkSlug(ctx context.Context, slug string, selfID int) error {
	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if existing != nil && PT(existing).Base().ID != selfID {
		return NewValidationError("slug", "An object with this slug already exists.")
	}
	return nil
}

func slugViolation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewValidationError("slug", "An object with this slug already exists.")
	}
	return err
}
