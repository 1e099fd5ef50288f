package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/token"
	"github.com/user/yamdb/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Config     *config.Config
	Tokens     *token.Manager
	Auth       *service.AuthService
	Users      *service.UserService
	Categories *service.TaxonomyService[model.Category, *model.Category]
	Genres     *service.TaxonomyService[model.Genre, *model.Genre]
	Titles     *service.TitleService
	Reviews    *service.ReviewService
	Comments   *service.CommentService
	Log        *zap.Logger

	CategoryAPI *TaxonomyHandler[model.Category, *model.Category]
	GenreAPI    *TaxonomyHandler[model.Genre, *model.Genre]
}

// NewHandler 创建处理器及其依赖的服务
func NewHandler(repos *repository.Repositories, cfg *config.Config, mail mailer.Mailer, log *zap.Logger) *Handler {
	tokens := token.NewManager(cfg.AppSecret, cfg.JWTExpiry)

	// 评分缓存，评价写入后失效
	ratings := service.NewRatingService(repos.Review, cfg.RatingCacheTTL)

	h := &Handler{
		Config: cfg,
		Tokens: tokens,
		Auth: service.NewAuthService(repos, tokens, mail, service.AuthOptions{
			MailFrom: cfg.Mail.From,
			CodeTTL:  cfg.ConfirmationCodeTTL,
		}, log),
		Users:      service.NewUserService(repos, cfg.UserCacheTTL),
		Categories: service.NewCategoryService(repos),
		Genres:     service.NewGenreService(repos),
		Titles:     service.NewTitleService(repos, ratings),
		Reviews:    service.NewReviewService(repos, ratings),
		Comments:   service.NewCommentService(repos),
		Log:        log.Named("http"),
	}
	h.CategoryAPI = newTaxonomyHandler(h, h.Categories)
	h.GenreAPI = newTaxonomyHandler(h, h.Genres)
	return h
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// pageParams 解析 page / page_size，page 非法时返回 404
func pageParams(c *gin.Context) (repository.Page, bool) {
	page := repository.Page{Number: 1, Size: repository.DefaultPageSize}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.Detail(c, http.StatusNotFound, "Invalid page.")
			return page, false
		}
		page.Number = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
		}
	}
	return page.Normalize(), true
}

// paginated 输出分页结果，超出最后一页返回 404
func paginated[T any](c *gin.Context, results []T, count int64, page repository.Page) {
	if page.Number > 1 && int64(page.Offset()) >= count {
		utils.Detail(c, http.StatusNotFound, "Invalid page.")
		return
	}
	c.JSON(http.StatusOK, utils.NewPaginated(c, results, count, page.Number, page.Size))
}

// intParam 路径中的整数 ID，非法时按不存在处理
func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		utils.NotFound(c)
		return 0, false
	}
	return id, true
}
