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

// listFilterFromQuery builds the public listing filter from the query
// string. Anonymous callers are pinned to published articles; editors and
// admins may ask for any status.
func (a *API) listFilterFromQuery(c *gin.Context) service.ArticleFilter {
	page, limit := pageParams(c)
	filter := service.ArticleFilter{
		Category: strings.TrimSpace(c.Query("category")),
		TagName:  strings.TrimSpace(c.Query("tag")),
		Search:   strings.TrimSpace(c.Query("q")),
		Status:   db.StatusPublished,
		Page:     page,
		PerPage:  limit,
	}

	if raw := c.Query("featured"); raw == "true" || raw == "false" {
		featured := raw == "true"
		filter.Featured = &featured
	}
	if raw := c.Query("breaking"); raw == "true" || raw == "false" {
		breaking := raw == "true"
		filter.Breaking = &breaking
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.StartDate = &from
		}
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			end := to.Add(24*time.Hour - time.Nanosecond)
			filter.EndDate = &end
		}
	}

	if requested := strings.TrimSpace(c.Query("status")); requested != "" {
		if user, ok := currentUser(c); ok && user.Role.HasAtLeast(db.RoleEditor) && db.ValidStatus(requested) {
			filter.Status = requested
		}
	}
	return filter
}

func listResponse(result *service.ArticleListResult) gin.H {
	return gin.H{
		"articles":   result.Articles,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	}
}

// ListArticles 公共文章列表，支持任意过滤条件的组合。
func (a *API) ListArticles(c *gin.Context) {
	result, err := a.articles.List(a.listFilterFromQuery(c))
	if err != nil {
		a.log.Error().Err(err).Msg("list articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, listResponse(result))
}

// SearchArticles requires a query term; everything else matches ListArticles.
func (a *API) SearchArticles(c *gin.Context) {
	if strings.TrimSpace(c.Query("q")) == "" {
		respondError(c, http.StatusBadRequest, "Search query is required")
		return
	}
	a.ListArticles(c)
}

// LatestArticles 最新文章
func (a *API) LatestArticles(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := a.articles.Latest(page, limit)
	if err != nil {
		a.log.Error().Err(err).Msg("latest articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, listResponse(result))
}

// FeaturedArticles 精选文章
func (a *API) FeaturedArticles(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := a.articles.Featured(page, limit)
	if err != nil {
		a.log.Error().Err(err).Msg("featured articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, listResponse(result))
}

// BreakingArticles 突发新闻
func (a *API) BreakingArticles(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := a.articles.Breaking(page, limit)
	if err != nil {
		a.log.Error().Err(err).Msg("breaking articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, listResponse(result))
}

// TrendingArticles ranks the lookback window by views.
func (a *API) TrendingArticles(c *gin.Context) {
	page, limit := pageParams(c)
	days := parsePositiveInt(c.DefaultQuery("days", ""), a.trendingDays)
	result, err := a.articles.Trending(days, page, limit)
	if err != nil {
		a.log.Error().Err(err).Msg("trending articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"articles":   result.Articles,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"days":       days,
	})
}

// ArticleDetail returns one article by slug with rendered body, approved
// comments and related reads. Every hit bumps the view counter by one,
// regardless of caller identity.
func (a *API) ArticleDetail(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	article, err := a.articles.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			respondError(c, http.StatusNotFound, "Article not found")
			return
		}
		a.log.Error().Err(err).Str("slug", slug).Msg("load article")
		respondError(c, http.StatusInternalServerError, "Failed to load article")
		return
	}

	// drafts and archived articles are only visible to editors
	if article.Status != db.StatusPublished {
		user, ok := currentUser(c)
		if !ok || !user.Role.HasAtLeast(db.RoleEditor) {
			respondError(c, http.StatusNotFound, "Article not found")
			return
		}
	} else {
		if err := a.articles.IncrementViews(article.ID); err != nil {
			a.log.Error().Err(err).Uint("article_id", article.ID).Msg("increment views")
		}
		article.Views++
	}

	comments, err := a.comments.ApprovedForArticle(article.ID)
	if err != nil {
		a.log.Error().Err(err).Uint("article_id", article.ID).Msg("load comments")
		respondError(c, http.StatusInternalServerError, "Failed to load article")
		return
	}

	related, err := a.articles.Related(article, 4)
	if err != nil {
		a.log.Error().Err(err).Uint("article_id", article.ID).Msg("load related")
		respondError(c, http.StatusInternalServerError, "Failed to load article")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"article":  article,
		"html":     service.RenderMarkdown(article.Content),
		"comments": comments,
		"related":  related,
	})
}

// ListCategories 返回可见栏目
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.ListActive()
	if err != nil {
		a.log.Error().Err(err).Msg("list categories")
		respondError(c, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	respondData(c, http.StatusOK, categories)
}

// CategoryArticles 按栏目列出已发布文章
func (a *API) CategoryArticles(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	page, limit := pageParams(c)

	result, err := a.articles.List(service.ArticleFilter{
		Category: slug,
		Status:   db.StatusPublished,
		Page:     page,
		PerPage:  limit,
	})
	if err != nil {
		a.log.Error().Err(err).Str("category", slug).Msg("category articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}

	// the category record is optional: a dangling slug still lists
	category, err := a.categories.GetBySlug(slug)
	if err != nil && !errors.Is(err, service.ErrCategoryNotFound) {
		a.log.Error().Err(err).Str("category", slug).Msg("load category")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}

	payload := listResponse(result)
	if category != nil {
		payload["category"] = category
	}
	respondData(c, http.StatusOK, payload)
}

// TagArticles 按标签列出已发布文章
func (a *API) TagArticles(c *gin.Context) {
	tag := strings.ToLower(strings.TrimSpace(c.Param("tag")))
	page, limit := pageParams(c)

	result, err := a.articles.List(service.ArticleFilter{
		TagName: tag,
		Status:  db.StatusPublished,
		Page:    page,
		PerPage: limit,
	})
	if err != nil {
		a.log.Error().Err(err).Str("tag", tag).Msg("tag articles")
		respondError(c, http.StatusInternalServerError, "Failed to load articles")
		return
	}

	payload := listResponse(result)
	payload["tag"] = tag
	respondData(c, http.StatusOK, payload)
}
