package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

// UserRepository 用户仓库
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, search string, page Page) ([]model.User, int64, error)
	Save(ctx context.Context, user *model.User) error
	SetCodeHash(ctx context.Context, userID int, hash string, issuedAt *time.Time) error
	ConsumeCode(ctx context.Context, userID int, hash string) (bool, error)
	ClearCodesIssuedBefore(ctx context.Context, before time.Time) (int64, error)
	Delete(ctx context.Context, userID int) error
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUsername 根据用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

// FindByEmail 根据邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List 按用户名排序分页，search 匹配用户名
func (r *userRepository) List(ctx context.Context, search string, page Page) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		q = q.Where("LOWER(username) LIKE ?", likePattern(search))
	}
	return paginate[model.User](q, page, "username ASC")
}

// Save 保存资料
func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SetCodeHash 覆盖确认码哈希
func (r *userRepository) SetCodeHash(ctx context.Context, userID int, hash string, issuedAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":  hash,
			"code_issued_at": issuedAt,
		}).Error
}

// ConsumeCode 仅当哈希未被并发替换时作废确认码，返回是否成功
func (r *userRepository) ConsumeCode(ctx context.Context, userID int, hash string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND password_hash = ?", userID, hash).
		Updates(map[string]interface{}{
			"password_hash":  "",
			"code_issued_at": nil,
		})
	return result.RowsAffected == 1, result.Error
}

// ClearCodesIssuedBefore 作废早于 before 发放的确认码
func (r *userRepository) ClearCodesIssuedBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("code_issued_at IS NOT NULL AND code_issued_at < ?", before).
		Updates(map[string]interface{}{
			"password_hash":  "",
			"code_issued_at": nil,
		})
	return result.RowsAffected, result.Error
}

// Delete 删除用户及其评价和评论
func (r *userRepository) Delete(ctx context.Context, userID int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&model.Review{}).Select("id").Where("author_id = ?", userID)
		if err := tx.Where("author_id = ? OR review_id IN (?)", userID, reviewIDs).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, userID).Error
	})
}

// Count 获取用户总数
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error
	return count, err
}

// likePattern 构造不区分大小写的包含匹配
func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
