package service

import (
	"context"
	"time"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
)

// CommentInput 评论写入
type CommentInput struct {
	Text *string `json:"text" validate:"required,notblank"`
}

type commentPatch struct {
	Text *string `json:"text" validate:"omitempty,notblank"`
}

// CommentView 评论读取视图
type CommentView struct {
	ID      int       `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

// CommentService 评论服务，评价必须属于路径中的作品
type CommentService struct {
	repos  *repository.Repositories
	policy permission.Policy
}

func NewCommentService(repos *repository.Repositories) *CommentService {
	return &CommentService{repos: repos, policy: permission.IsOwnerOrModeratorOrReadOnly{}}
}

// List 评价下的评论
func (s *CommentService) List(ctx context.Context, titleID, reviewID int, page repository.Page) ([]CommentView, int64, error) {
	if err := s.reviewExists(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	comments, total, err := s.repos.Comment.List(ctx, reviewID, page)
	if err != nil {
		return nil, 0, err
	}
	views := make([]CommentView, len(comments))
	for i := range comments {
		views[i] = toCommentView(&comments[i])
	}
	return views, total, nil
}

// Get 单条评论
func (s *CommentService) Get(ctx context.Context, titleID, reviewID, id int) (*CommentView, error) {
	comment, err := s.find(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	v := toCommentView(comment)
	return &v, nil
}

// Create 创建评论
func (s *CommentService) Create(ctx context.Context, caller permission.Caller, titleID, reviewID int, in CommentInput) (*CommentView, error) {
	if err := permission.Authorize(s.policy, caller, permission.Create, nil); err != nil {
		return nil, err
	}
	if err := s.reviewExists(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	comment := &model.Comment{ReviewID: reviewID, AuthorID: caller.ID, Text: *in.Text}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.Get(ctx, titleID, reviewID, comment.ID)
}

// Update 部分更新
func (s *CommentService) Update(ctx context.Context, caller permission.Caller, titleID, reviewID, id int, in CommentInput) (*CommentView, error) {
	comment, err := s.authorized(ctx, caller, permission.Update, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(commentPatch(in)); err != nil {
		return nil, err
	}
	if in.Text != nil {
		comment.Text = *in.Text
	}
	if err := s.repos.Comment.Save(ctx, comment); err != nil {
		return nil, err
	}
	v := toCommentView(comment)
	return &v, nil
}

// Delete 删除评论
func (s *CommentService) Delete(ctx context.Context, caller permission.Caller, titleID, reviewID, id int) error {
	comment, err := s.authorized(ctx, caller, permission.Delete, titleID, reviewID, id)
	if err != nil {
		return err
	}
	return s.repos.Comment.Delete(ctx, comment.ID)
}

func (s *CommentService) authorized(ctx context.Context, caller permission.Caller, action permission.Action, titleID, reviewID, id int) (*model.Comment, error) {
	if err := permission.Authorize(s.policy, caller, action, nil); err != nil {
		return nil, err
	}
	comment, err := s.find(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	if err := permission.Authorize(s.policy, caller, action, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) find(ctx context.Context, titleID, reviewID, id int) (*model.Comment, error) {
	if err := s.reviewExists(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.repos.Comment.FindByID(ctx, reviewID, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrNotFound
	}
	return comment, nil
}

func (s *CommentService) reviewExists(ctx context.Context, titleID, reviewID int) error {
	review, err := s.repos.Review.FindByID(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrNotFound
	}
	return nil
}

func toCommentView(c *model.Comment) CommentView {
	v := CommentView{ID: c.ID, Text: c.Text, PubDate: c.PubDate}
	if c.Author != nil {
		v.Author = c.Author.Username
	}
	return v
}
