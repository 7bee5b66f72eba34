package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/service"
)

type articlePayload struct {
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	Content          string   `json:"content"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	ImageURL         *string  `json:"imageUrl"`
	ImageCaption     *string  `json:"imageCaption"`
	Status           *string  `json:"status"`
	Featured         *bool    `json:"featured"`
	BreakingNews     *bool    `json:"breakingNews"`
	AllowComments    *bool    `json:"allowComments"`
	MetaDescription  *string  `json:"metaDescription"`
	PublishDate      *string  `json:"publishDate"`
}

type createArticlePayload struct {
	Title            string   `json:"title" binding:"required,max=200"`
	ShortDescription string   `json:"shortDescription" binding:"required,max=500"`
	Content          string   `json:"content" binding:"required"`
	Category         string   `json:"category" binding:"required"`
	Tags             []string `json:"tags"`
	ImageURL         *string  `json:"imageUrl"`
	ImageCaption     *string  `json:"imageCaption"`
	Status           *string  `json:"status"`
	Featured         *bool    `json:"featured"`
	BreakingNews     *bool    `json:"breakingNews"`
	AllowComments    *bool    `json:"allowComments"`
	MetaDescription  *string  `json:"metaDescription"`
	PublishDate      *string  `json:"publishDate"`
}

func parsePublishDate(raw *string) (*time.Time, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if when, err := time.Parse(layout, strings.TrimSpace(*raw)); err == nil {
			return &when, true
		}
	}
	return nil, false
}

func (a *API) respondArticleError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrArticleNotFound):
		respondError(c, http.StatusNotFound, "Article not found")
	case errors.Is(err, service.ErrInvalidCategory):
		respondError(c, http.StatusBadRequest, "Category must be one of the known sections")
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "Invalid article status")
	default:
		a.log.Error().Err(err).Msg(action)
		respondError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}

// AdminListArticles 后台文章列表，编辑可按任意状态过滤。
func (a *API) AdminListArticles(c *gin.Context) {
	page, limit := pageParams(c)
	filter := service.ArticleFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("q")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PerPage:  limit,
	}
	if filter.Status != "" && !db.ValidStatus(filter.Status) {
		respondError(c, http.StatusBadRequest, "Invalid article status")
		return
	}

	result, err := a.articles.List(filter)
	if err != nil {
		a.log.Error().Err(err).Msg("admin list articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, listResponse(result))
}

// AdminGetArticle 获取单篇文章（含草稿）
func (a *API) AdminGetArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	article, err := a.articles.GetByID(id)
	if err != nil {
		a.respondArticleError(c, err, "load article")
		return
	}
	respondData(c, http.StatusOK, article)
}

// CreateArticle 创建文章，作者为当前编辑。
func (a *API) CreateArticle(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}

	var payload createArticlePayload
	if !bindJSON(c, &payload) {
		return
	}

	publishDate, ok := parsePublishDate(payload.PublishDate)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid publish date")
		return
	}

	article, err := a.articles.Create(service.ArticleInput{
		Title:            payload.Title,
		ShortDescription: payload.ShortDescription,
		Content:          payload.Content,
		Category:         strings.ToLower(strings.TrimSpace(payload.Category)),
		TagNames:         payload.Tags,
		ImageURL:         payload.ImageURL,
		ImageCaption:     payload.ImageCaption,
		Status:           payload.Status,
		Featured:         payload.Featured,
		BreakingNews:     payload.BreakingNews,
		AllowComments:    payload.AllowComments,
		MetaDescription:  payload.MetaDescription,
		PublishDate:      publishDate,
		AuthorID:         user.ID,
	})
	if err != nil {
		a.respondArticleError(c, err, "create article")
		return
	}
	respondData(c, http.StatusCreated, article)
}

// UpdateArticle 更新文章，仅接受允许列表中的字段。
func (a *API) UpdateArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload articlePayload
	if !bindJSON(c, &payload) {
		return
	}

	publishDate, ok := parsePublishDate(payload.PublishDate)
	if !ok {
		respondError(c, http.StatusBadRequest, "Invalid publish date")
		return
	}

	article, err := a.articles.Update(id, service.ArticleInput{
		Title:            payload.Title,
		ShortDescription: payload.ShortDescription,
		Content:          payload.Content,
		Category:         strings.ToLower(strings.TrimSpace(payload.Category)),
		TagNames:         payload.Tags,
		ImageURL:         payload.ImageURL,
		ImageCaption:     payload.ImageCaption,
		Status:           payload.Status,
		Featured:         payload.Featured,
		BreakingNews:     payload.BreakingNews,
		AllowComments:    payload.AllowComments,
		MetaDescription:  payload.MetaDescription,
		PublishDate:      publishDate,
	})
	if err != nil {
		a.respondArticleError(c, err, "update article")
		return
	}
	respondData(c, http.StatusOK, article)
}

// DeleteArticle 删除文章及其评论
func (a *API) DeleteArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.articles.Delete(id); err != nil {
		a.respondArticleError(c, err, "delete article")
		return
	}
	respondMessage(c, http.StatusOK, "Article deleted")
}
