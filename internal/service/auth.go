package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/metrics"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// codeBytes 确认码随机字节数，十六进制编码后为 12 个字符
const codeBytes = 6

// TokenIssuer 签发访问令牌
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// SignupInput 注册请求
type SignupInput struct {
	Username string `json:"username" validate:"required,max=150,username,notme"`
	Email    string `json:"email" validate:"required,max=254,singleat,email"`
}

// TokenInput 换取令牌请求
type TokenInput struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// AuthOptions 认证服务可选参数
type AuthOptions struct {
	MailFrom   string
	CodeTTL    time.Duration // 0 表示确认码不过期
	BcryptCost int
}

// AuthService 确认码注册与令牌换取
type AuthService struct {
	repos  *repository.Repositories
	tokens TokenIssuer
	mail   mailer.Mailer
	opts   AuthOptions
	log    *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService 创建认证服务
func NewAuthService(repos *repository.Repositories, tokens TokenIssuer, mail mailer.Mailer, opts AuthOptions, log *zap.Logger) *AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		repos:   repos,
		tokens:  tokens,
		mail:    mail,
		opts:    opts,
		log:     log.Named("auth"),
		now:     time.Now,
		newCode: GenerateCode,
	}
}

// GenerateCode 生成 12 位十六进制确认码
func GenerateCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成确认码失败: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Signup 注册或重发确认码
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupInput, error) {
	if err := validateStruct(in); err != nil {
		metrics.AuthEvents.WithLabelValues("signup", "invalid").Inc()
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("哈希确认码失败: %w", err)
	}

	// 并发注册撞上唯一索引时整体重试一次
	created, err := s.issueCode(ctx, in, string(hash))
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		created, err = s.issueCode(ctx, in, string(hash))
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		metrics.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		return nil, NewValidationError(NonFieldErrors, "A user with this username or email already exists.")
	}
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			metrics.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		}
		return nil, err
	}

	outcome := "resent"
	if created {
		outcome = "created"
	}
	metrics.AuthEvents.WithLabelValues("signup", outcome).Inc()

	msg := mailer.ConfirmationMessage(s.opts.MailFrom, in.Email, in.Username, code)
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("发送确认码失败", zap.String("username", in.Username), zap.Error(err))
	}

	return &SignupInput{Username: in.Username, Email: in.Email}, nil
}

// issueCode 在事务中完成查重与写入，返回是否新建了用户
func (s *AuthService) issueCode(ctx context.Context, in SignupInput, hash string) (bool, error) {
	created := false
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		byName, err := tx.User.FindByUsername(ctx, in.Username)
		if err != nil {
			return err
		}
		byEmail, err := tx.User.FindByEmail(ctx, in.Email)
		if err != nil {
			return err
		}

		now := s.now()
		switch {
		case byName == nil && byEmail == nil:
			created = true
			return tx.User.Create(ctx, &model.User{
				Username:     in.Username,
				Email:        in.Email,
				PasswordHash: hash,
				Role:         model.RoleUser,
				CodeIssuedAt: &now,
			})
		case byName != nil && byEmail != nil && byName.ID == byEmail.ID:
			return tx.User.SetCodeHash(ctx, byName.ID, hash, &now)
		default:
			ve := &ValidationError{}
			if byName != nil {
				ve.Add("email", "This username is registered with a different email.")
			}
			if byEmail != nil {
				ve.Add("username", "This email is registered with a different username.")
			}
			return ve
		}
	})
	return created, err
}

// ExchangeCode 校验确认码并签发令牌，成功后确认码作废
func (s *AuthService) ExchangeCode(ctx context.Context, in TokenInput) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}

	user, err := s.repos.User.FindByUsername(ctx, in.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		metrics.AuthEvents.WithLabelValues("token", "unknown_user").Inc()
		return "", ErrNotFound
	}

	if !s.codeMatches(user, in.ConfirmationCode) {
		metrics.AuthEvents.WithLabelValues("token", "invalid_code").Inc()
		return "", ErrInvalidCredentials
	}

	ok, err := s.repos.User.ConsumeCode(ctx, user.ID, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !ok {
		// 同一确认码被并发使用或刚被重新发放
		metrics.AuthEvents.WithLabelValues("token", "invalid_code").Inc()
		return "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user)
	if err != nil {
		return "", fmt.Errorf("签发令牌失败: %w", err)
	}
	metrics.AuthEvents.WithLabelValues("token", "issued").Inc()
	return tok, nil
}

func (s *AuthService) codeMatches(user *model.User, code string) bool {
	if user.PasswordHash == "" {
		return false
	}
	if s.opts.CodeTTL > 0 {
		if user.CodeIssuedAt == nil || s.now().Sub(*user.CodeIssuedAt) > s.opts.CodeTTL {
			return false
		}
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(code)) == nil
}
