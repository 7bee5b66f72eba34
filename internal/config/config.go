package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr       string
	Port             string
	DatabasePath     string
	JWTSecret        string
	TokenTTL         time.Duration
	GinMode          string
	UploadDir        string
	UploadURLPath    string
	AdminEmail       string
	AdminPassword    string
	SiteBaseURL      string
	SiteName         string
	TrendingDays     int
	CountRefreshMins int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "newsroom.db"
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = "newsroom-dev-secret"
	}

	tokenTTL := 7 * 24 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL_HOURS")); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			tokenTTL = time.Duration(hours) * time.Hour
		}
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	uploadDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if uploadDir == "" {
		uploadDir = "web/static/uploads"
	}

	uploadURLPath := strings.TrimSpace(os.Getenv("UPLOAD_URL_PATH"))
	if uploadURLPath == "" {
		uploadURLPath = "/static/uploads"
	}

	siteBaseURL := strings.TrimSpace(os.Getenv("SITE_BASE_URL"))
	if siteBaseURL == "" {
		siteBaseURL = "http://localhost:8080"
	}

	siteName := strings.TrimSpace(os.Getenv("SITE_NAME"))
	if siteName == "" {
		siteName = "Bahadurgarh News"
	}

	trendingDays := 7
	if raw := strings.TrimSpace(os.Getenv("TRENDING_DAYS")); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			trendingDays = days
		}
	}

	countRefreshMins := 15
	if raw := strings.TrimSpace(os.Getenv("COUNT_REFRESH_MINUTES")); raw != "" {
		if mins, err := strconv.Atoi(raw); err == nil && mins > 0 {
			countRefreshMins = mins
		}
	}

	return AppConfig{
		ListenAddr:       listenAddr,
		Port:             port,
		DatabasePath:     databasePath,
		JWTSecret:        jwtSecret,
		TokenTTL:         tokenTTL,
		GinMode:          ginMode,
		UploadDir:        uploadDir,
		UploadURLPath:    uploadURLPath,
		AdminEmail:       strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:    strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		SiteBaseURL:      siteBaseURL,
		SiteName:         siteName,
		TrendingDays:     trendingDays,
		CountRefreshMins: countRefreshMins,
	}
}
