package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type inbox struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (i *inbox) Send(_ context.Context, msg mailer.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, msg)
	return nil
}

func (i *inbox) code(t *testing.T) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	require.NotEmpty(t, i.msgs)
	body := i.msgs[len(i.msgs)-1].Body
	const marker = "Your confirmation code: "
	idx := strings.Index(body, marker)
	require.GreaterOrEqual(t, idx, 0)
	return body[idx+len(marker) : idx+len(marker)+12]
}

type server struct {
	engine *gin.Engine
	repos  *repository.Repositories
	h      *handler.Handler
	mail   *inbox
}

func newServer(t *testing.T) *server {
	t.Helper()
	db, err := repository.InitDB("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	cfg := &config.Config{
		AppSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		RatingCacheTTL: time.Minute,
		UserCacheTTL:   time.Minute,
		Mail:           config.MailConfig{From: "noreply@yamdb.local"},
	}
	repos := repository.NewRepositories(db)
	mail := &inbox{}
	h := handler.NewHandler(repos, cfg, mail, zap.NewNop())

	r := NewEngine(false, zap.NewNop())
	RegisterRoutes(r, h, nil)
	return &server{engine: r, repos: repos, h: h, mail: mail}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// login 通过注册与确认码流程获取令牌
func (s *server) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": username, "email": username + "@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": username, "confirmation_code": s.mail.code(t)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res.Token
}

// admin 创建管理员并登录
func (s *server) admin(t *testing.T, username string) string {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Role: model.RoleAdmin}
	require.NoError(t, s.repos.User.Create(context.Background(), u))
	return s.login(t, username)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSignupTokenAndRoleEscalation(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice","email":"alice@example.com"}`, w.Body.String())
	code := s.mail.code(t)

	w = s.do(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "alice", "confirmation_code": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid confirmation code"}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "alice", "confirmation_code": code})
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, tok)

	w = s.do(t, http.MethodPatch, "/v1/users/me/", tok, gin.H{"role": "admin", "bio": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "user", me["role"])
	assert.Equal(t, "hello", me["bio"])

	stored, err := s.repos.User.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, stored.Role)
}

func TestAuthErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		field  string
	}{
		{"reserved username", "/v1/auth/signup/", gin.H{"username": "me", "email": "me@example.com"}, http.StatusBadRequest, "username"},
		{"missing email", "/v1/auth/signup", gin.H{"username": "bob"}, http.StatusBadRequest, "email"},
		{"malformed json", "/v1/auth/signup/", `{"username":`, http.StatusBadRequest, "non_field_errors"},
		{"wrong type", "/v1/auth/signup/", `{"username": 5, "email": "x@example.com"}`, http.StatusBadRequest, "username"},
		{"unknown user", "/v1/auth/token/", gin.H{"username": "ghost", "confirmation_code": "abc"}, http.StatusNotFound, "detail"},
		{"missing code", "/v1/auth/token/", gin.H{"username": "ghost"}, http.StatusBadRequest, "confirmation_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, decode[map[string]any](t, w), tt.field)
		})
	}
}

func TestPutIsNotAllowed(t *testing.T) {
	s := newServer(t)
	tok := s.admin(t, "admin")

	for _, path := range []string{"/v1/titles/1/", "/v1/titles/1", "/v1/titles/", "/v1/users/me/", "/v1/categories/movie/"} {
		w := s.do(t, http.MethodPut, path, tok, gin.H{"name": "x"})
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("Allow"), path)
	}

	w := s.do(t, http.MethodDelete, "/v1/users/me/", tok, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, PATCH", w.Header().Get("Allow"))
}

func TestCatalogFlow(t *testing.T) {
	s := newServer(t)
	admin := s.admin(t, "admin")
	alice := s.login(t, "alice")
	bob := s.login(t, "bob")

	w := s.do(t, http.MethodPost, "/v1/categories/", alice, gin.H{"name": "Movie", "slug": "movie"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodPost, "/v1/categories/", "", gin.H{"name": "Movie", "slug": "movie"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/categories/", admin, gin.H{"name": "Movie", "slug": "movie"}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/genres/", admin, gin.H{"name": "Drama", "slug": "drama"}).Code)

	w = s.do(t, http.MethodPost, "/v1/titles/", admin, gin.H{"name": "Heat", "year": 1995, "category": "movie", "genre": []string{"drama"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	title := decode[map[string]any](t, w)
	assert.Nil(t, title["rating"])
	assert.Equal(t, map[string]any{"name": "Movie", "slug": "movie"}, title["category"])
	id := int(title["id"].(float64))
	base := "/v1/titles/" + strconv.Itoa(id)

	w = s.do(t, http.MethodPost, base+"/reviews/", alice, gin.H{"text": "good", "score": 7})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[map[string]any](t, w)
	assert.Equal(t, "alice", review["author"])
	reviewPath := base + "/reviews/" + strconv.Itoa(int(review["id"].(float64)))

	w = s.do(t, http.MethodPost, base+"/reviews/", alice, gin.H{"text": "again", "score": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "non_field_errors")

	w = s.do(t, http.MethodPost, base+"/reviews/", bob, gin.H{"text": "meh", "score": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/reviews/", bob, gin.H{"text": "great", "score": 8}).Code)

	w = s.do(t, http.MethodGet, base+"/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.5, decode[map[string]any](t, w)["rating"])

	w = s.do(t, http.MethodPatch, reviewPath+"/", bob, gin.H{"score": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, reviewPath+"/comments/", bob, gin.H{"text": "disagree"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, reviewPath+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.Equal(t, float64(1), page["count"])
	assert.Nil(t, page["next"])

	w = s.do(t, http.MethodGet, "/v1/titles/999/reviews/1/comments/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, base+"/", admin, gin.H{"description": "LA crime saga"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Heat", decode[map[string]any](t, w)["name"])

	w = s.do(t, http.MethodGet, "/v1/titles/?genre=drama&year=1995", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = s.do(t, http.MethodGet, "/v1/titles/?page=5", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, base+"/", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base+"/", "", nil).Code)
}

func TestUserDirectory(t *testing.T) {
	s := newServer(t)
	admin := s.admin(t, "admin")
	alice := s.login(t, "alice")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/v1/users/", alice, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/users/me/", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/users/me/", "garbage", nil).Code)

	w := s.do(t, http.MethodPost, "/v1/users/", admin, gin.H{"username": "carol", "email": "carol@example.com", "role": "moderator"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/v1/users/?search=car", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = s.do(t, http.MethodPatch, "/v1/users/alice/", admin, gin.H{"role": "moderator"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "moderator", decode[map[string]any](t, w)["role"])

	// 角色变更对已签发的令牌立即生效
	w = s.do(t, http.MethodGet, "/v1/users/me", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "moderator", decode[map[string]any](t, w)["role"])

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/v1/users/alice/", admin, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/users/me/", alice, nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yamdb_http_requests_total")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/nope", "", nil).Code)
}
