package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/utils"
)

// UserInput 管理员创建用户
type UserInput struct {
	Username  string     `json:"username" validate:"required,max=150,username,notme"`
	Email     string     `json:"email" validate:"required,max=254,singleat,email"`
	FirstName string     `json:"first_name" validate:"max=150"`
	LastName  string     `json:"last_name" validate:"max=150"`
	Bio       string     `json:"bio"`
	Role      model.Role `json:"role" validate:"omitempty,role"`
}

// UserPatch 部分更新，nil 字段保持不变
type UserPatch struct {
	Username  *string     `json:"username" validate:"omitempty,max=150,username,notme"`
	Email     *string     `json:"email" validate:"omitempty,max=254,singleat,email"`
	FirstName *string     `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string     `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string     `json:"bio"`
	Role      *model.Role `json:"role" validate:"omitempty,role"`
}

// UserService 用户目录
type UserService struct {
	repos  *repository.Repositories
	policy permission.Policy
	cache  *utils.Store[permission.Caller]
}

// NewUserService cacheTTL 为认证用户缓存时间
func NewUserService(repos *repository.Repositories, cacheTTL time.Duration) *UserService {
	if cacheTTL <= 0 {
		cacheTTL = time.Second
	}
	return &UserService{
		repos:  repos,
		policy: permission.AuthorOrAdmin{},
		cache:  utils.NewStore[permission.Caller](cacheTTL),
	}
}

// LoadCaller 根据令牌中的用户 ID 取当前角色，用户不存在返回 false
func (s *UserService) LoadCaller(ctx context.Context, userID int) (permission.Caller, bool, error) {
	if c, ok := s.cache.Get(userID); ok {
		return c, true, nil
	}
	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		return permission.Anonymous, false, err
	}
	if user == nil {
		return permission.Anonymous, false, nil
	}
	c := permission.CallerFromUser(user)
	s.cache.Set(userID, c)
	return c, true, nil
}

// List 用户列表
func (s *UserService) List(ctx context.Context, caller permission.Caller, search string, page repository.Page) ([]model.User, int64, error) {
	if err := permission.Authorize(s.policy, caller, permission.List, nil); err != nil {
		return nil, 0, err
	}
	return s.repos.User.List(ctx, search, page)
}

// Create 管理员创建用户，不发放确认码
func (s *UserService) Create(ctx context.Context, caller permission.Caller, in UserInput) (*model.User, error) {
	if err := permission.Authorize(s.policy, caller, permission.Create, nil); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleUser
	}
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Bio:       in.Bio,
		Role:      role,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, uniqueViolation(err)
	}
	return user, nil
}

// Get 按用户名获取
func (s *UserService) Get(ctx context.Context, caller permission.Caller, username string) (*model.User, error) {
	return s.lookup(ctx, caller, permission.Retrieve, username)
}

// Update 管理员部分更新，可修改角色
func (s *UserService) Update(ctx context.Context, caller permission.Caller, username string, patch UserPatch) (*model.User, error) {
	user, err := s.lookup(ctx, caller, permission.Update, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, patch)
}

// Delete 删除用户
func (s *UserService) Delete(ctx context.Context, caller permission.Caller, username string) error {
	user, err := s.lookup(ctx, caller, permission.Delete, username)
	if err != nil {
		return err
	}
	if err := s.repos.User.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.cache.Delete(user.ID)
	return nil
}

// Me 当前用户资料
func (s *UserService) Me(ctx context.Context, caller permission.Caller) (*model.User, error) {
	if err := permission.Authorize(permission.IsAuthenticated{}, caller, permission.Retrieve, nil); err != nil {
		return nil, err
	}
	user, err := s.repos.User.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateMe 修改自己的资料，角色字段被忽略
func (s *UserService) UpdateMe(ctx context.Context, caller permission.Caller, patch UserPatch) (*model.User, error) {
	user, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	patch.Role = nil
	return s.apply(ctx, user, patch)
}

func (s *UserService) lookup(ctx context.Context, caller permission.Caller, action permission.Action, username string) (*model.User, error) {
	if !s.policy.HasPermission(caller, action) {
		return nil, permission.Authorize(s.policy, caller, action, nil)
	}
	user, err := s.repos.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if err := permission.Authorize(s.policy, caller, action, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) apply(ctx context.Context, user *model.User, patch UserPatch) (*model.User, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if err := s.checkUnique(ctx, user.ID, username, email); err != nil {
		return nil, err
	}

	user.Username, user.Email = username, email
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.repos.User.Save(ctx, user); err != nil {
		return nil, uniqueViolation(err)
	}
	s.cache.Delete(user.ID)
	return user, nil
}

// checkUnique 检查用户名和邮箱是否被其他用户占用
func (s *UserService) checkUnique(ctx context.Context, selfID int, username, email string) error {
	ve := &ValidationError{}
	byName, err := s.repos.User.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if byName != nil && byName.ID != selfID {
		ve.Add("username", "A user with that username already exists.")
	}
	byEmail, err := s.repos.User.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		ve.Add("email", "A user with that email already exists.")
	}
	return ve.OrNil()
}

func uniqueViolation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewValidationError(NonFieldErrors, "A user with that username or email already exists.")
	}
	return err
}

// EnsureSuperuser 创建或提升超级管理员，供命令行使用，之后通过注册流程获取确认码
func (s *UserService) EnsureSuperuser(ctx context.Context, username, email string) (*model.User, bool, error) {
	if err := validateStruct(SignupInput{Username: username, Email: email}); err != nil {
		return nil, false, err
	}

	var user *model.User
	created := false
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		existing, err := tx.User.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing == nil {
			byEmail, err := tx.User.FindByEmail(ctx, email)
			if err != nil {
				return err
			}
			if byEmail != nil {
				return NewValidationError("email", "A user with that email already exists.")
			}
			user = &model.User{Username: username, Email: email, Role: model.RoleAdmin, IsSuperuser: true}
			created = true
			return tx.User.Create(ctx, user)
		}
		if existing.Email != email {
			return NewValidationError("email", "Email does not match the existing user.")
		}
		existing.Role = model.RoleAdmin
		existing.IsSuperuser = true
		user = existing
		return tx.User.Save(ctx, existing)
	})
	if err != nil {
		return nil, false, uniqueViolation(err)
	}
	s.cache.Delete(user.ID)
	return user, created, nil
}
