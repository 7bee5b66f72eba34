package db

import (
	"time"

	"gorm.io/gorm"
)

// 评论状态
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
	CommentRejected = "rejected"
	CommentSpam     = "spam"
)

// ValidCommentStatus reports whether s is one of the moderation enum values.
func ValidCommentStatus(s string) bool {
	switch s {
	case CommentPending, CommentApproved, CommentRejected, CommentSpam:
		return true
	}
	return false
}

// Comment 定义了评论模型，支持一层回复。
type Comment struct {
	gorm.Model
	Content   string `gorm:"not null"`
	ArticleID uint   `gorm:"index;not null"`
	Article   Article
	UserID    uint `gorm:"index;not null"`
	User      User
	ParentID  *uint  `gorm:"index"`
	Status    string `gorm:"default:approved;index"`
	Likes     []User `gorm:"many2many:comment_likes;"`
	IsEdited  bool   `gorm:"default:false"`
	EditedAt  *time.Time
	Reports   []CommentReport
}

// CommentReport 记录举报，(comment_id, user_id) 唯一保证每人只能举报一次。
type CommentReport struct {
	gorm.Model
	CommentID uint `gorm:"uniqueIndex:idx_comment_report_once;not null"`
	UserID    uint `gorm:"uniqueIndex:idx_comment_report_once;not null"`
	Reason    string
}
