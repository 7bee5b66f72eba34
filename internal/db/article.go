package db

import (
	"time"

	"gorm.io/gorm"
)

// 文章状态
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Categories is the fixed taxonomy of section slugs an article may carry.
var Categories = []string{
	"india", "world", "business", "sports", "entertainment", "technology", "health",
}

// ValidCategory reports whether slug belongs to the fixed category enum.
func ValidCategory(slug string) bool {
	for _, c := range Categories {
		if c == slug {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the article status enum values.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Article 定义了文章模型
type Article struct {
	gorm.Model
	Title            string `gorm:"not null"`
	ShortDescription string `gorm:"not null"`
	Content          string `gorm:"not null"`
	AuthorID         uint   `gorm:"index"`
	Author           User
	Category         string `gorm:"index"`
	Tags             []Tag  `gorm:"many2many:article_tags;"`
	ImageURL         string
	ImageCaption     string
	Status           string `gorm:"default:draft;index"`
	Featured         bool   `gorm:"default:false;index"`
	BreakingNews     bool   `gorm:"default:false;index"`
	AllowComments    bool   `gorm:"default:true"`
	Views            int64  `gorm:"default:0"`
	ReadingTime      int
	PublishDate      time.Time `gorm:"index"`
	MetaDescription  string
	Slug             string `gorm:"uniqueIndex"`
}

// Tag 定义了标签模型
type Tag struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null"`
}
