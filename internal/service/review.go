package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
)

const duplicateReview = "You have already reviewed this title."

// ReviewInput 评价写入
type ReviewInput struct {
	Text  *string `json:"text" validate:"required,notblank"`
	Score *int    `json:"score" validate:"required,min=1,max=10"`
}

type reviewPatch struct {
	Text  *string `json:"text" validate:"omitempty,notblank"`
	Score *int    `json:"score" validate:"omitempty,min=1,max=10"`
}

// ReviewView 评价读取视图
type ReviewView struct {
	ID      int       `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

// ReviewService 评价服务
type ReviewService struct {
	repos   *repository.Repositories
	ratings *RatingService
	policy  permission.Policy
}

func NewReviewService(repos *repository.Repositories, ratings *RatingService) *ReviewService {
	return &ReviewService{repos: repos, ratings: ratings, policy: permission.IsOwnerOrModeratorOrReadOnly{}}
}

// List 作品下的评价
func (s *ReviewService) List(ctx context.Context, titleID int, page repository.Page) ([]ReviewView, int64, error) {
	if err := s.titleExists(ctx, titleID); err != nil {
		return nil, 0, err
	}
	reviews, total, err := s.repos.Review.List(ctx, titleID, page)
	if err != nil {
		return nil, 0, err
	}
	views := make([]ReviewView, len(reviews))
	for i := range reviews {
		views[i] = toReviewView(&reviews[i])
	}
	return views, total, nil
}

// Get 单条评价
func (s *ReviewService) Get(ctx context.Context, titleID, id int) (*ReviewView, error) {
	review, err := s.find(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	v := toReviewView(review)
	return &v, nil
}

// Create 创建评价，同一用户对同一作品只能评价一次
func (s *ReviewService) Create(ctx context.Context, caller permission.Caller, titleID int, in ReviewInput) (*ReviewView, error) {
	if err := permission.Authorize(s.policy, caller, permission.Create, nil); err != nil {
		return nil, err
	}
	if err := s.titleExists(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	exists, err := s.repos.Review.Exists(ctx, caller.ID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, NewValidationError(NonFieldErrors, duplicateReview)
	}

	review := &model.Review{
		TitleID:  titleID,
		AuthorID: caller.ID,
		Text:     *in.Text,
		Score:    *in.Score,
	}
	if err := s.repos.Review.Create(ctx, review); err != nil {
		// 并发创建时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError(NonFieldErrors, duplicateReview)
		}
		return nil, err
	}
	s.ratings.Invalidate(titleID)

	return s.Get(ctx, titleID, review.ID)
}

// Update 部分更新，作者、版主或管理员
func (s *ReviewService) Update(ctx context.Context, caller permission.Caller, titleID, id int, in ReviewInput) (*ReviewView, error) {
	review, err := s.authorized(ctx, caller, permission.Update, titleID, id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(reviewPatch(in)); err != nil {
		return nil, err
	}

	if in.Text != nil {
		review.Text = *in.Text
	}
	if in.Score != nil {
		review.Score = *in.Score
	}
	if err := s.repos.Review.Save(ctx, review); err != nil {
		return nil, err
	}
	s.ratings.Invalidate(titleID)

	v := toReviewView(review)
	return &v, nil
}

// Delete 删除评价及其评论
func (s *ReviewService) Delete(ctx context.Context, caller permission.Caller, titleID, id int) error {
	review, err := s.authorized(ctx, caller, permission.Delete, titleID, id)
	if err != nil {
		return err
	}
	if err := s.repos.Review.Delete(ctx, review.ID); err != nil {
		return err
	}
	s.ratings.Invalidate(titleID)
	return nil
}

// authorized 先做列表级判断，再查找对象并做对象级判断
func (s *ReviewService) authorized(ctx context.Context, caller permission.Caller, action permission.Action, titleID, id int) (*model.Review, error) {
	if err := permission.Authorize(s.policy, caller, action, nil); err != nil {
		return nil, err
	}
	review, err := s.find(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Authorize(s.policy, caller, action, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) find(ctx context.Context, titleID, id int) (*model.Review, error) {
	review, err := s.repos.Review.FindByID(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrNotFound
	}
	return review, nil
}

func (s *ReviewService) titleExists(ctx context.Context, titleID int) error {
	title, err := s.repos.Title.FindByID(ctx, titleID)
	if err != nil {
		return err
	}
	if title == nil {
		return ErrNotFound
	}
	return nil
}

func toReviewView(r *model.Review) ReviewView {
	v := ReviewView{ID: r.ID, Text: r.Text, Score: r.Score, PubDate: r.PubDate}
	if r.Author != nil {
		v.Author = r.Author.Username
	}
	return v
}
