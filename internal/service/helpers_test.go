package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/permission"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/token"
)

type outbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.msgs[len(o.msgs)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.msgs)
}

type env struct {
	db       *gorm.DB
	repos    *repository.Repositories
	mail     *outbox
	tokens   *token.Manager
	auth     *AuthService
	users    *UserService
	ratings  *RatingService
	titles   *TitleService
	reviews  *ReviewService
	comments *CommentService
	category *TaxonomyService[model.Category, *model.Category]
	genre    *TaxonomyService[model.Genre, *model.Genre]
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := repository.InitDB("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	repos := repository.NewRepositories(db)
	e := &env{
		db:     db,
		repos:  repos,
		mail:   &outbox{},
		tokens: token.NewManager("test-secret", time.Hour),
	}
	e.auth = NewAuthService(repos, e.tokens, e.mail, AuthOptions{
		MailFrom:   "noreply@yamdb.local",
		BcryptCost: bcrypt.MinCost,
	}, zap.NewNop())
	e.users = NewUserService(repos, time.Minute)
	e.ratings = NewRatingService(repos.Review, time.Minute)
	e.titles = NewTitleService(repos, e.ratings)
	e.reviews = NewReviewService(repos, e.ratings)
	e.comments = NewCommentService(repos)
	e.category = NewCategoryService(repos)
	e.genre = NewGenreService(repos)
	return e
}

// user 直接写库创建用户并返回调用者
func (e *env) user(t *testing.T, username string, role model.Role) permission.Caller {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, e.repos.User.Create(context.Background(), u))
	return permission.CallerFromUser(u)
}

func ptr[T any](v T) *T {
	return &v
}

// lastCode 从最后一封邮件正文中取出确认码
func (e *env) lastCode(t *testing.T) string {
	t.Helper()
	body := e.mail.last().Body
	const marker = "Your confirmation code: "
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0, "confirmation code not found in %q", body)
	start := i + len(marker)
	return body[start : start+codeBytes*2]
}
