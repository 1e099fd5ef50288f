package service

import (
	"context"
	"fmt"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
)

// TitleInput 作品写入，分类和类型以 slug 表示
type TitleInput struct {
	Name        *string   `json:"name" validate:"required,notblank,max=256"`
	Year        *int      `json:"year" validate:"required,notfuture"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"required"`
	Genre       *[]string `json:"genre" validate:"omitempty,dive,slug"`
}

type titlePatch struct {
	Name        *string   `json:"name" validate:"omitempty,notblank,max=256"`
	Year        *int      `json:"year" validate:"omitempty,notfuture"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre" validate:"omitempty,dive,slug"`
}

// TitleView 作品读取视图
type TitleView struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Year        int             `json:"year"`
	Rating      *float64        `json:"rating"`
	Description *string         `json:"description"`
	Genre       []model.Genre   `json:"genre"`
	Category    *model.Category `json:"category"`
}

// TitleService 作品服务，仅管理员可写
type TitleService struct {
	repos   *repository.Repositories
	ratings *RatingService
	policy  permission.Policy
}

func NewTitleService(repos *repository.Repositories, ratings *RatingService) *TitleService {
	return &TitleService{repos: repos, ratings: ratings, policy: permission.IsAdminOrReadOnly{}}
}

// List 过滤分页并附带评分
func (s *TitleService) List(ctx context.Context, filter repository.TitleFilter, page repository.Page) ([]TitleView, int64, error) {
	titles, total, err := s.repos.Title.List(ctx, filter, page)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	ratings, err := s.ratings.Ratings(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	views := make([]TitleView, len(titles))
	for i := range titles {
		views[i] = toTitleView(&titles[i], ratings[titles[i].ID])
	}
	return views, total, nil
}

// Get 单个作品
func (s *TitleService) Get(ctx context.Context, id int) (*TitleView, error) {
	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, title)
}

// Create 创建作品
func (s *TitleService) Create(ctx context.Context, caller permission.Caller, in TitleInput) (*TitleView, error) {
	if err := permission.Authorize(s.policy, caller, permission.Create, nil); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	category, genres, err := s.resolve(ctx, in.Category, in.Genre)
	if err != nil {
		return nil, err
	}

	title := &model.Title{
		Name:        *in.Name,
		Year:        *in.Year,
		Description: in.Description,
		CategoryID:  &category.ID,
		Genres:      genres,
	}
	if err := s.repos.Title.Create(ctx, title); err != nil {
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

// Update 部分更新，genre 出现时整体替换
func (s *TitleService) Update(ctx context.Context, caller permission.Caller, id int, in TitleInput) (*TitleView, error) {
	if err := permission.Authorize(s.policy, caller, permission.Update, nil); err != nil {
		return nil, err
	}
	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(titlePatch(in)); err != nil {
		return nil, err
	}

	category, genres, err := s.resolve(ctx, in.Category, in.Genre)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		title.Name = *in.Name
	}
	if in.Year != nil {
		title.Year = *in.Year
	}
	if in.Description != nil {
		title.Description = in.Description
	}
	if category != nil {
		title.CategoryID = &category.ID
	}

	if err := s.repos.Title.Update(ctx, title, genres, in.Genre != nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

// Delete 删除作品
func (s *TitleService) Delete(ctx context.Context, caller permission.Caller, id int) error {
	if err := permission.Authorize(s.policy, caller, permission.Delete, nil); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Title.Delete(ctx, id); err != nil {
		return err
	}
	s.ratings.Invalidate(id)
	return nil
}

func (s *TitleService) find(ctx context.Context, id int) (*model.Title, error) {
	title, err := s.repos.Title.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrNotFound
	}
	return title, nil
}

func (s *TitleService) view(ctx context.Context, title *model.Title) (*TitleView, error) {
	rating, err := s.ratings.Rating(ctx, title.ID)
	if err != nil {
		return nil, err
	}
	v := toTitleView(title, rating)
	return &v, nil
}

// resolve 把 slug 换成实体，不存在的 slug 报字段错误
func (s *TitleService) resolve(ctx context.Context, categorySlug *string, genreSlugs *[]string) (*model.Category, []model.Genre, error) {
	ve := &ValidationError{}

	var category *model.Category
	if categorySlug != nil {
		c, err := s.repos.Category.FindBySlug(ctx, *categorySlug)
		if err != nil {
			return nil, nil, err
		}
		if c == nil {
			ve.Add("category", fmt.Sprintf("Object with slug=%s does not exist.", *categorySlug))
		}
		category = c
	}

	var genres []model.Genre
	if genreSlugs != nil {
		found, err := s.repos.Genre.FindBySlugs(ctx, *genreSlugs)
		if err != nil {
			return nil, nil, err
		}
		known := make(map[string]bool, len(found))
		for _, g := range found {
			known[g.Slug] = true
		}
		for _, slug := range *genreSlugs {
			if !known[slug] {
				ve.Add("genre", fmt.Sprintf("Object with slug=%s does not exist.", slug))
			}
		}
		genres = found
	}

	if err := ve.OrNil(); err != nil {
		return nil, nil, err
	}
	return category, genres, nil
}

func toTitleView(t *model.Title, rating *float64) TitleView {
	genres := t.Genres
	if genres == nil {
		genres = []model.Genre{}
	}
	return TitleView{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       genres,
		Category:    t.Category,
	}
}
