package handler

import (
	"github.com/newsroom/internal/config"
	"github.com/newsroom/internal/service"
	"github.com/newsroom/internal/token"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	log        zerolog.Logger
	tokens     *token.Service
	users      *service.UserService
	articles   *service.ArticleService
	categories *service.CategoryService
	comments   *service.CommentService

	uploadDir    string
	uploadURL    string
	siteBaseURL  string
	siteName     string
	trendingDays int
	cookieMaxAge int
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig, log zerolog.Logger) *API {
	return &API{
		db:           gdb,
		log:          log,
		tokens:       token.NewService(cfg.JWTSecret, cfg.TokenTTL),
		users:        service.NewUserService(gdb),
		articles:     service.NewArticleService(gdb),
		categories:   service.NewCategoryService(gdb),
		comments:     service.NewCommentService(gdb),
		uploadDir:    cfg.UploadDir,
		uploadURL:    cfg.UploadURLPath,
		siteBaseURL:  cfg.SiteBaseURL,
		siteName:     cfg.SiteName,
		trendingDays: cfg.TrendingDays,
		cookieMaxAge: int(cfg.TokenTTL.Seconds()),
	}
}

// Categories exposes the category service for maintenance jobs in main.
func (a *API) Categories() *service.CategoryService {
	return a.categories
}

// Users exposes the user service so main can seed the bootstrap admin.
func (a *API) Users() *service.UserService {
	return a.users
}
