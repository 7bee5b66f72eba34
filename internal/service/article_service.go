package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/newsroom/internal/db"
	"gorm.io/gorm"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrInvalidCategory = errors.New("category is not one of the known sections")
	ErrInvalidStatus   = errors.New("invalid article status")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ArticleService wraps article related database operations.
type ArticleService struct {
	db *gorm.DB
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(gdb *gorm.DB) *ArticleService {
	return &ArticleService{db: gdb}
}

// ArticleFilter describes filters for listing articles. Filters compose with
// AND semantics; zero values are ignored.
type ArticleFilter struct {
	Category  string
	TagName   string
	Search    string
	Status    string
	Featured  *bool
	Breaking  *bool
	StartDate *time.Time
	EndDate   *time.Time
	SortViews bool
	Page      int
	PerPage   int
}

// ArticleListResult aggregates paginated list data.
type ArticleListResult struct {
	Articles   []db.Article
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// ArticleInput represents fields accepted when creating or updating an
// article. Pointer fields distinguish "absent" from zero on update.
type ArticleInput struct {
	Title            string
	ShortDescription string
	Content          string
	Category         string
	TagNames         []string
	ImageURL         *string
	ImageCaption     *string
	Status           *string
	Featured         *bool
	BreakingNews     *bool
	AllowComments    *bool
	MetaDescription  *string
	PublishDate      *time.Time
	AuthorID         uint
}

// MakeSlug derives a lowercase hyphenated slug from a title, suffixed with a
// uniqueness token. Stable once stored: it is only computed at first save.
func MakeSlug(title string, at time.Time) string {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if base == "" {
		base = "article"
	}
	return fmt.Sprintf("%s-%d", base, at.UnixMilli())
}

// Create persists an article, computing its slug and reading time once.
func (s *ArticleService) Create(input ArticleInput) (*db.Article, error) {
	if !db.ValidCategory(input.Category) {
		return nil, ErrInvalidCategory
	}

	status := db.StatusDraft
	if input.Status != nil {
		if !db.ValidStatus(*input.Status) {
			return nil, ErrInvalidStatus
		}
		status = *input.Status
	}

	now := time.Now()
	article := db.Article{
		Title:            strings.TrimSpace(input.Title),
		ShortDescription: strings.TrimSpace(input.ShortDescription),
		Content:          input.Content,
		AuthorID:         input.AuthorID,
		Category:         input.Category,
		Status:           status,
		AllowComments:    true,
		ReadingTime:      calculateReadingTime(input.Content),
		PublishDate:      now,
		Slug:             MakeSlug(input.Title, now),
	}
	if input.ImageURL != nil {
		article.ImageURL = *input.ImageURL
	}
	if input.ImageCaption != nil {
		article.ImageCaption = *input.ImageCaption
	}
	if input.Featured != nil {
		article.Featured = *input.Featured
	}
	if input.BreakingNews != nil {
		article.BreakingNews = *input.BreakingNews
	}
	if input.AllowComments != nil {
		article.AllowComments = *input.AllowComments
	}
	if input.MetaDescription != nil {
		article.MetaDescription = *input.MetaDescription
	}
	if input.PublishDate != nil {
		article.PublishDate = *input.PublishDate
	}

	return s.saveWithTags(&article, input.TagNames)
}

// Update applies an allow-listed update to an existing article. The slug is
// immutable and never recomputed.
func (s *ArticleService) Update(id uint, input ArticleInput) (*db.Article, error) {
	article, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if title := strings.TrimSpace(input.Title); title != "" {
		updates["title"] = title
	}
	if desc := strings.TrimSpace(input.ShortDescription); desc != "" {
		updates["short_description"] = desc
	}
	if input.Content != "" {
		// reading time stays as computed at first save
		updates["content"] = input.Content
	}
	if input.Category != "" {
		if !db.ValidCategory(input.Category) {
			return nil, ErrInvalidCategory
		}
		updates["category"] = input.Category
	}
	if input.Status != nil {
		if !db.ValidStatus(*input.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = *input.Status
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.ImageCaption != nil {
		updates["image_caption"] = *input.ImageCaption
	}
	if input.Featured != nil {
		updates["featured"] = *input.Featured
	}
	if input.BreakingNews != nil {
		updates["breaking_news"] = *input.BreakingNews
	}
	if input.AllowComments != nil {
		updates["allow_comments"] = *input.AllowComments
	}
	if input.MetaDescription != nil {
		updates["meta_description"] = *input.MetaDescription
	}
	if input.PublishDate != nil {
		updates["publish_date"] = *input.PublishDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(article).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if input.TagNames != nil {
		tags, err := s.findOrCreateTags(input.TagNames)
		if err != nil {
			return nil, err
		}
		if err := s.db.Model(article).Association("Tags").Replace(tags); err != nil {
			return nil, err
		}
	}

	return s.GetByID(id)
}

// saveWithTags creates the article and its tag associations in a transaction.
func (s *ArticleService) saveWithTags(article *db.Article, tagNames []string) (*db.Article, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(article).Error; err != nil {
			return err
		}
		if len(tagNames) == 0 {
			return nil
		}
		tags, err := findOrCreateTagsTx(tx, tagNames)
		if err != nil {
			return err
		}
		return tx.Model(article).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(article.ID)
}

func (s *ArticleService) findOrCreateTags(names []string) ([]db.Tag, error) {
	return findOrCreateTagsTx(s.db, names)
}

func findOrCreateTagsTx(tx *gorm.DB, names []string) ([]db.Tag, error) {
	tags := make([]db.Tag, 0, len(names))
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag db.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, db.Tag{Name: name}).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// GetByID fetches an article with author and tags preloaded.
func (s *ArticleService) GetByID(id uint) (*db.Article, error) {
	var article db.Article
	if err := s.db.Preload("Tags").Preload("Author").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// GetBySlug fetches an article by its slug.
func (s *ArticleService) GetBySlug(slug string) (*db.Article, error) {
	var article db.Article
	if err := s.db.Preload("Tags").Preload("Author").Where("slug = ?", slug).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

// IncrementViews bumps the view counter by exactly one with an atomic SQL
// update. A plain read-modify-write here would drop concurrent increments.
func (s *ArticleService) IncrementViews(id uint) error {
	return s.db.Model(&db.Article{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// List returns a filtered, paginated, ordered page of articles plus the
// total count for the same filter.
func (s *ArticleService) List(filter ArticleFilter) (*ArticleListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 12
	}
	if perPage > 100 {
		perPage = 100
	}

	query := s.db.Model(&db.Article{})

	if filter.Status != "" {
		query = query.Where("articles.status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("articles.category = ?", filter.Category)
	}
	if filter.Featured != nil {
		query = query.Where("articles.featured = ?", *filter.Featured)
	}
	if filter.Breaking != nil {
		query = query.Where("articles.breaking_news = ?", *filter.Breaking)
	}
	if filter.StartDate != nil {
		query = query.Where("articles.publish_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("articles.publish_date <= ?", *filter.EndDate)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.TagName)); tag != "" {
		tagged := s.db.Model(&db.Tag{}).
			Select("article_tags.article_id").
			Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
			Where("tags.name = ?", tag)
		query = query.Where("articles.id IN (?)", tagged)
	}

	search := strings.TrimSpace(filter.Search)
	like := "%" + strings.ToLower(search) + "%"
	if search != "" {
		tagged := s.db.Model(&db.Tag{}).
			Select("article_tags.article_id").
			Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
			Where("tags.name LIKE ?", like)
		query = query.Where(
			s.db.Where("lower(articles.title) LIKE ?", like).
				Or("lower(articles.short_description) LIKE ?", like).
				Or("lower(articles.content) LIKE ?", like).
				Or("articles.id IN (?)", tagged),
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	switch {
	case search != "":
		// title hits rank above body hits, recency breaks ties
		query = query.
			Select("articles.*, CASE WHEN lower(articles.title) LIKE ? THEN 0 ELSE 1 END AS search_rank", like).
			Order("search_rank asc").
			Order("articles.publish_date desc")
	case filter.SortViews:
		query = query.Order("articles.views desc").Order("articles.publish_date desc")
	default:
		query = query.Order("articles.publish_date desc")
	}

	var articles []db.Article
	err := query.
		Preload("Tags").
		Preload("Author").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &ArticleListResult{
		Articles:   articles,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// Trending lists published articles from the lookback window ordered by view
// count descending.
func (s *ArticleService) Trending(days, page, perPage int) (*ArticleListResult, error) {
	if days < 1 {
		days = 7
	}
	start := time.Now().AddDate(0, 0, -days)
	return s.List(ArticleFilter{
		Status:    db.StatusPublished,
		StartDate: &start,
		SortViews: true,
		Page:      page,
		PerPage:   perPage,
	})
}

// Featured lists published featured articles, newest first.
func (s *ArticleService) Featured(page, perPage int) (*ArticleListResult, error) {
	featured := true
	return s.List(ArticleFilter{
		Status:   db.StatusPublished,
		Featured: &featured,
		Page:     page,
		PerPage:  perPage,
	})
}

// Breaking lists published breaking news, newest first.
func (s *ArticleService) Breaking(page, perPage int) (*ArticleListResult, error) {
	breaking := true
	return s.List(ArticleFilter{
		Status:   db.StatusPublished,
		Breaking: &breaking,
		Page:     page,
		PerPage:  perPage,
	})
}

// Latest lists published articles, newest first.
func (s *ArticleService) Latest(page, perPage int) (*ArticleListResult, error) {
	return s.List(ArticleFilter{
		Status:  db.StatusPublished,
		Page:    page,
		PerPage: perPage,
	})
}

// Related returns published articles from the same category, excluding the
// article itself.
func (s *ArticleService) Related(article *db.Article, limit int) ([]db.Article, error) {
	if limit < 1 {
		limit = 4
	}
	var related []db.Article
	err := s.db.
		Where("category = ? AND status = ? AND id <> ?", article.Category, db.StatusPublished, article.ID).
		Order("publish_date desc").
		Limit(limit).
		Preload("Author").
		Find(&related).Error
	if err != nil {
		return nil, err
	}
	return related, nil
}

// Delete removes an article permanently together with its comments.
func (s *ArticleService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Delete(&db.Article{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrArticleNotFound
		}
		return tx.Unscoped().Where("article_id = ?", id).Delete(&db.Comment{}).Error
	})
}

// ArticleStats 汇总文章相关统计数据。
type ArticleStats struct {
	Total      int64 `json:"total"`
	Published  int64 `json:"published"`
	Drafts     int64 `json:"drafts"`
	TotalViews int64 `json:"totalViews"`
}

// Stats aggregates article counts and the site-wide view total.
func (s *ArticleService) Stats() (ArticleStats, error) {
	var stats ArticleStats
	if err := s.db.Model(&db.Article{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.Article{}).Where("status = ?", db.StatusPublished).Count(&stats.Published).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.Article{}).Where("status = ?", db.StatusDraft).Count(&stats.Drafts).Error; err != nil {
		return stats, err
	}

	var views struct{ Total int64 }
	if err := s.db.Model(&db.Article{}).Select("COALESCE(SUM(views), 0) AS total").Scan(&views).Error; err != nil {
		return stats, err
	}
	stats.TotalViews = views.Total
	return stats, nil
}
