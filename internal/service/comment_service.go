package service

import (
	"errors"
	"strings"
	"time"

	"github.com/newsroom/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCommentsClosed     = errors.New("comments are disabled for this article")
	ErrEmptyComment       = errors.New("comment content is empty")
	ErrInvalidCommentEdit = errors.New("only the author may edit a comment")
)

// CommentService wraps comment related database operations.
type CommentService struct {
	db *gorm.DB
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// CommentView is a comment plus its derived counters and one level of
// approved replies.
type CommentView struct {
	ID        uint             `json:"id"`
	Content   string           `json:"content"`
	User      db.PublicProfile `json:"user"`
	Status    string           `json:"status"`
	LikeCount int64            `json:"likeCount"`
	IsEdited  bool             `json:"isEdited"`
	CreatedAt time.Time        `json:"createdAt"`
	Replies   []CommentView    `json:"replies,omitempty"`
}

// Create stores a comment. New comments default to approved; the moderation
// enum exists and the admin API can move them, but no gate runs before
// display (recorded product decision).
func (s *CommentService) Create(articleID, userID uint, parentID *uint, content string) (*db.Comment, error) {
	body := SanitizeComment(content)
	if body == "" {
		return nil, ErrEmptyComment
	}

	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if !article.AllowComments {
		return nil, ErrCommentsClosed
	}

	if parentID != nil {
		var parent db.Comment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCommentNotFound
			}
			return nil, err
		}
		// one level of threading: replying to a reply attaches to its parent
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	comment := db.Comment{
		Content:   body,
		ArticleID: articleID,
		UserID:    userID,
		ParentID:  parentID,
		Status:    db.CommentApproved,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// Get fetches a comment by id.
func (s *CommentService) Get(id uint) (*db.Comment, error) {
	var comment db.Comment
	if err := s.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// Edit replaces the comment body and marks it edited. Only the author may
// edit; deletion is the admin's tool.
func (s *CommentService) Edit(id, userID uint, content string) (*db.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrInvalidCommentEdit
	}

	body := SanitizeComment(content)
	if body == "" {
		return nil, ErrEmptyComment
	}

	now := time.Now()
	err = s.db.Model(comment).Updates(map[string]interface{}{
		"content":   body,
		"is_edited": true,
		"edited_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Like records a like; liking twice is a no-op.
func (s *CommentService) Like(commentID, userID uint) error {
	comment, err := s.Get(commentID)
	if err != nil {
		return err
	}

	var count int64
	err = s.db.Table("comment_likes").
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.db.Model(comment).Association("Likes").Append(&db.User{Model: gorm.Model{ID: userID}})
}

// Unlike removes a like if present.
func (s *CommentService) Unlike(commentID, userID uint) error {
	comment, err := s.Get(commentID)
	if err != nil {
		return err
	}
	return s.db.Model(comment).Association("Likes").Delete(&db.User{Model: gorm.Model{ID: userID}})
}

// LikeCount returns the number of distinct likes on a comment.
func (s *CommentService) LikeCount(commentID uint) (int64, error) {
	var count int64
	err := s.db.Table("comment_likes").Where("comment_id = ?", commentID).Count(&count).Error
	return count, err
}

// Report files a report; a second report by the same user is a no-op, the
// unique index on (comment_id, user_id) backs the check under concurrency.
func (s *CommentService) Report(commentID, userID uint, reason string) error {
	if _, err := s.Get(commentID); err != nil {
		return err
	}

	var existing db.CommentReport
	err := s.db.Where("comment_id = ? AND user_id = ?", commentID, userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	report := db.CommentReport{
		CommentID: commentID,
		UserID:    userID,
		Reason:    strings.TrimSpace(reason),
	}
	if err := s.db.Create(&report).Error; err != nil {
		// concurrent duplicate loses to the unique index, treat as no-op
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil
		}
		return err
	}
	return nil
}

// ReportCount returns the number of distinct reports on a comment.
func (s *CommentService) ReportCount(commentID uint) (int64, error) {
	var count int64
	err := s.db.Model(&db.CommentReport{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count, err
}

// ApprovedForArticle lists approved top-level comments for an article,
// newest first, with one level of approved replies.
func (s *CommentService) ApprovedForArticle(articleID uint) ([]CommentView, error) {
	var comments []db.Comment
	err := s.db.
		Where("article_id = ? AND status = ? AND parent_id IS NULL", articleID, db.CommentApproved).
		Order("created_at desc").
		Preload("User").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		view, err := s.buildView(&comments[i], true)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CommentService) buildView(comment *db.Comment, withReplies bool) (CommentView, error) {
	view := CommentView{
		ID:        comment.ID,
		Content:   comment.Content,
		User:      comment.User.Public(),
		Status:    comment.Status,
		IsEdited:  comment.IsEdited,
		CreatedAt: comment.CreatedAt,
	}

	likeCount, err := s.LikeCount(comment.ID)
	if err != nil {
		return view, err
	}
	view.LikeCount = likeCount

	if !withReplies {
		return view, nil
	}

	var replies []db.Comment
	err = s.db.
		Where("parent_id = ? AND status = ?", comment.ID, db.CommentApproved).
		Order("created_at asc").
		Preload("User").
		Find(&replies).Error
	if err != nil {
		return view, err
	}
	for i := range replies {
		replyView, err := s.buildView(&replies[i], false)
		if err != nil {
			return view, err
		}
		view.Replies = append(view.Replies, replyView)
	}
	return view, nil
}

// CommentFilter describes filters for the admin listing.
type CommentFilter struct {
	Status  string
	Page    int
	PerPage int
}

// CommentListResult aggregates paginated admin list data.
type CommentListResult struct {
	Comments   []db.Comment
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// ListAdmin returns comments for moderation, newest first.
func (s *CommentService) ListAdmin(filter CommentFilter) (*CommentListResult, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}

	query := s.db.Model(&db.Comment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var comments []db.Comment
	err := query.
		Order("created_at desc").
		Preload("User").
		Preload("Article").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &CommentListResult{
		Comments:   comments,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// SetStatus moves a comment through the moderation enum.
func (s *CommentService) SetStatus(id uint, status string) (*db.Comment, error) {
	if !db.ValidCommentStatus(status) {
		return nil, ErrInvalidStatus
	}
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(comment).Update("status", status).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a comment and its replies permanently.
func (s *CommentService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Delete(&db.Comment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCommentNotFound
		}
		return tx.Unscoped().Where("parent_id = ?", id).Delete(&db.Comment{}).Error
	})
}

// CommentStats 按状态统计评论数量。
type CommentStats struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
}

// Stats aggregates comment counts by moderation status.
func (s *CommentService) Stats() (CommentStats, error) {
	var stats CommentStats
	if err := s.db.Model(&db.Comment{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.Comment{}).Where("status = ?", db.CommentApproved).Count(&stats.Approved).Error; err != nil {
		return stats, err
	}
	stats.Pending = stats.Total - stats.Approved
	return stats, nil
}
