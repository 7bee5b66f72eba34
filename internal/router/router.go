package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, uploadURLPath, uploadDir string) *gin.Engine {
	// unknown fields in request bodies are rejected instead of merged
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.Default()

	if uploadURLPath != "" && uploadDir != "" {
		r.Static(uploadURLPath, uploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.GET("/rss", api.RSSFeed)

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/register", api.Register)
			auth.POST("/login", api.Login)
			auth.POST("/logout", api.Logout)
			auth.POST("/forgot-password", api.ForgotPassword)
			auth.POST("/reset-password", api.ResetPassword)

			authed := auth.Group("")
			authed.Use(api.Authenticate())
			{
				authed.GET("/me", api.Me)
				authed.PUT("/profile", api.UpdateProfile)
				authed.PUT("/password", api.ChangePassword)
				authed.GET("/saved-articles", api.SavedArticles)
				authed.POST("/saved-articles/:id", api.SaveArticle)
				authed.DELETE("/saved-articles/:id", api.UnsaveArticle)
			}
		}

		// public reads attach an identity when one is offered so editors
		// can see their drafts through the same routes
		public := apiGroup.Group("")
		public.Use(api.OptionalAuth())
		{
			public.GET("/articles", api.ListArticles)
			public.GET("/articles/latest", api.LatestArticles)
			public.GET("/articles/featured", api.FeaturedArticles)
			public.GET("/articles/trending", api.TrendingArticles)
			public.GET("/articles/breaking", api.BreakingArticles)
			public.GET("/articles/search", api.SearchArticles)
			public.GET("/article/:slug", api.ArticleDetail)
			public.GET("/categories", api.ListCategories)
			public.GET("/category/:slug", api.CategoryArticles)
			public.GET("/tags/:tag", api.TagArticles)
		}

		comments := apiGroup.Group("")
		comments.Use(api.Authenticate())
		{
			comments.POST("/articles/:id/comments", api.CreateComment)
			comments.PUT("/comments/:id", api.EditComment)
			comments.DELETE("/comments/:id", api.DeleteOwnComment)
			comments.POST("/comments/:id/like", api.LikeComment)
			comments.DELETE("/comments/:id/like", api.UnlikeComment)
			comments.POST("/comments/:id/report", api.ReportComment)
		}
	}

	// browser flow: missing or bad cookies redirect instead of erroring
	account := r.Group("")
	account.Use(api.AuthenticateWeb())
	{
		account.GET("/profile", api.RequireAuthWeb(), api.ProfilePage)
	}

	web := r.Group("/admin")
	web.Use(api.AuthenticateWeb())
	{
		web.GET("/dashboard", api.RequireAdminWeb(), api.AdminDashboard)
	}

	adminAPI := r.Group("/admin/api")
	adminAPI.Use(api.Authenticate())
	{
		editor := adminAPI.Group("")
		editor.Use(api.RequireRole(db.RoleEditor))
		{
			editor.GET("/articles", api.AdminListArticles)
			editor.GET("/articles/:id", api.AdminGetArticle)
			editor.POST("/articles", api.CreateArticle)
			editor.PUT("/articles/:id", api.UpdateArticle)
			editor.POST("/upload", api.UploadImage)
		}

		admin := adminAPI.Group("")
		admin.Use(api.RequireRole(db.RoleAdmin))
		{
			admin.DELETE("/articles/:id", api.DeleteArticle)

			admin.GET("/categories", api.AdminListCategories)
			admin.POST("/categories", api.CreateCategory)
			admin.PUT("/categories/:id", api.UpdateCategory)
			admin.DELETE("/categories/:id", api.DeleteCategory)
			admin.POST("/categories/refresh-counts", api.RefreshCategoryCounts)

			admin.GET("/users", api.AdminListUsers)
			admin.PUT("/users/:id", api.AdminUpdateUser)
			admin.DELETE("/users/:id", api.AdminDeleteUser)

			admin.GET("/comments", api.AdminListComments)
			admin.PUT("/comments/:id", api.AdminUpdateComment)
			admin.DELETE("/comments/:id", api.AdminDeleteComment)

			admin.GET("/stats", api.AdminStats)
		}
	}

	return r
}
