package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/newsroom/internal/config"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/service"
)

// 测试数据生成器：为本地开发填充栏目、账号和示例文章。
func main() {
	cfg := config.Load()
	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	defer db.Close(gdb)

	fmt.Println("开始生成测试数据...")

	users := service.NewUserService(gdb)
	articles := service.NewArticleService(gdb)
	categories := service.NewCategoryService(gdb)

	if err := users.EnsureAdmin("Administrator", "admin@example.com", "admin123"); err != nil {
		log.Fatal("创建管理员失败:", err)
	}

	editor, err := users.Register(service.RegisterInput{
		Name:     "Demo Editor",
		Email:    "editor@example.com",
		Password: "editor123",
	})
	if err != nil {
		if !errors.Is(err, service.ErrEmailTaken) {
			log.Fatal("创建编辑账号失败:", err)
		}
		editor, err = users.Login("editor@example.com", "editor123")
		if err != nil {
			log.Fatal("编辑账号已存在但无法登录:", err)
		}
	} else {
		role := db.RoleEditor
		if _, err := users.AdminUpdate(editor.ID, service.AdminUserInput{Role: &role}); err != nil {
			log.Fatal("提升编辑权限失败:", err)
		}
	}

	seedCategories(categories)
	seedArticles(articles, editor.ID)

	if err := categories.RefreshArticleCounts(); err != nil {
		log.Fatal("刷新栏目计数失败:", err)
	}

	fmt.Println("测试数据生成完成")
}

func seedCategories(categories *service.CategoryService) {
	names := map[string]string{
		"india":         "India",
		"world":         "World",
		"business":      "Business",
		"sports":        "Sports",
		"entertainment": "Entertainment",
		"technology":    "Technology",
		"health":        "Health",
	}
	for _, slug := range db.Categories {
		if _, err := categories.GetBySlug(slug); err == nil {
			continue
		}
		if _, err := categories.Create(service.CategoryInput{Name: names[slug]}); err != nil {
			log.Fatal("创建栏目失败:", err)
		}
	}
	fmt.Printf("已创建 %d 个栏目\n", len(db.Categories))
}

func seedArticles(articles *service.ArticleService, authorID uint) {
	published := db.StatusPublished
	now := time.Now()

	samples := []service.ArticleInput{
		{
			Title:            "City Metro Extension Opens to Commuters",
			ShortDescription: "The long-awaited metro line begins service this week.",
			Content:          "Commuters boarded the first trains on the new line this morning. Officials expect daily ridership to cross one lakh within a month.",
			Category:         "india",
			TagNames:         []string{"metro", "infrastructure"},
			Status:           &published,
			PublishDate:      &now,
			AuthorID:         authorID,
		},
		{
			Title:            "Markets Rally on Strong Quarterly Earnings",
			ShortDescription: "Benchmark indices closed at a record high.",
			Content:          "Banking and IT stocks led the rally as quarterly results beat estimates across the board.",
			Category:         "business",
			TagNames:         []string{"markets", "earnings"},
			Status:           &published,
			PublishDate:      &now,
			AuthorID:         authorID,
		},
		{
			Title:            "National Side Names Squad for Winter Tour",
			ShortDescription: "Two uncapped players earn their first call-up.",
			Content:          "The selectors announced a sixteen-member squad on Friday, with two newcomers rewarded for strong domestic seasons.",
			Category:         "sports",
			TagNames:         []string{"cricket", "squad"},
			Status:           &published,
			PublishDate:      &now,
			AuthorID:         authorID,
		},
	}

	created := 0
	for _, input := range samples {
		if _, err := articles.Create(input); err != nil {
			log.Fatal("创建示例文章失败:", err)
		}
		created++
	}
	fmt.Printf("已创建 %d 篇示例文章\n", created)
}
