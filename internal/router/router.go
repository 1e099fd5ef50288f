package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// NewEngine 创建 gin 引擎并挂载全局中间件
func NewEngine(production bool, log *zap.Logger) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	// 自定义校验标签同时注册到 gin 的绑定引擎
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		service.RegisterValidations(v)
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log.Named("access")))
	r.Use(middleware.Metrics())
	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.NoRoute(utils.NotFound)
	r.NoMethod(handler.MethodNotAllowed())
	return r
}

// RegisterRoutes 注册所有路由，rdb 为 nil 时不启用限流
func RegisterRoutes(r *gin.Engine, h *handler.Handler, rdb *redis.Client) {
	// 健康检查
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(middleware.Authenticate(h.Tokens, h.Users, h.Log))

	// ==================== 注册与令牌 ====================
	auth := routes{v1.Group("/auth", middleware.RateLimit(rdb, "auth", h.Config.Redis.RateLimitPerMinute, h.Log))}
	auth.handle(http.MethodPost, "/signup", h.Signup)
	auth.handle(http.MethodPost, "/token", h.Token)

	api := routes{v1}

	// ==================== 用户 ====================
	api.handle(http.MethodGet, "/users/me", h.Me)
	api.handle(http.MethodPatch, "/users/me", h.UpdateMe)
	api.disallow("/users/me", []string{http.MethodGet, http.MethodPatch}, http.MethodPut, http.MethodDelete)
	api.collection("/users", h.ListUsers, h.CreateUser)
	api.detail("/users/:username", h.GetUser, h.UpdateUser, h.DeleteUser)

	// ==================== 分类与类型 ====================
	api.collection("/categories", h.CategoryAPI.List, h.CategoryAPI.Create)
	api.detail("/categories/:slug", h.CategoryAPI.Get, h.CategoryAPI.Update, h.CategoryAPI.Delete)
	api.collection("/genres", h.GenreAPI.List, h.GenreAPI.Create)
	api.detail("/genres/:slug", h.GenreAPI.Get, h.GenreAPI.Update, h.GenreAPI.Delete)

	// ==================== 作品、评价与评论 ====================
	api.collection("/titles", h.ListTitles, h.CreateTitle)
	api.detail("/titles/:title_id", h.GetTitle, h.UpdateTitle, h.DeleteTitle)
	api.collection("/titles/:title_id/reviews", h.ListReviews, h.CreateReview)
	api.detail("/titles/:title_id/reviews/:review_id", h.GetReview, h.UpdateReview, h.DeleteReview)
	api.collection("/titles/:title_id/reviews/:review_id/comments", h.ListComments, h.CreateComment)
	api.detail("/titles/:title_id/reviews/:review_id/comments/:comment_id", h.GetComment, h.UpdateComment, h.DeleteComment)
}

// routes 同时注册带与不带结尾斜杠的路径
type routes struct {
	g *gin.RouterGroup
}

func (r routes) handle(method, path string, h gin.HandlerFunc) {
	r.g.Handle(method, path, h)
	r.g.Handle(method, path+"/", h)
}

// collection 列表与创建，PUT 返回 405
func (r routes) collection(path string, list, create gin.HandlerFunc) {
	r.handle(http.MethodGet, path, list)
	r.handle(http.MethodPost, path, create)
	r.disallow(path, []string{http.MethodGet, http.MethodPost}, http.MethodPut)
}

// detail 获取、部分更新与删除，不支持整体替换
func (r routes) detail(path string, get, patch, del gin.HandlerFunc) {
	r.handle(http.MethodGet, path, get)
	r.handle(http.MethodPatch, path, patch)
	r.handle(http.MethodDelete, path, del)
	r.disallow(path, []string{http.MethodGet, http.MethodPatch, http.MethodDelete}, http.MethodPut)
}

func (r routes) disallow(path string, allow []string, methods ...string) {
	for _, m := range methods {
		r.handle(m, path, handler.MethodNotAllowed(allow...))
	}
}
