package db

import "gorm.io/gorm"

// Category 定义了栏目模型。ArticleCount 为非实时的冗余计数，
// 由维护任务定期重算，不随文章写入同步更新。
type Category struct {
	gorm.Model
	Name         string `gorm:"uniqueIndex;not null"`
	Slug         string `gorm:"uniqueIndex"`
	Description  string
	Color        string `gorm:"default:#3B82F6"`
	Icon         string `gorm:"default:fas fa-newspaper"`
	IsActive     bool   `gorm:"default:true;index"`
	SortOrder    int    `gorm:"default:0"`
	ParentID     *uint
	ArticleCount int64 `gorm:"default:0"`
}
