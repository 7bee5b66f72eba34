package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/config"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/handler"
	"github.com/newsroom/internal/router"
	"github.com/newsroom/pkg/logger"
)

func main() {
	log := logger.New()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	gdb, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	api := handler.NewAPI(gdb, cfg, log)

	if err := api.Categories().RefreshArticleCounts(); err != nil {
		log.Error().Err(err).Msg("initial category count refresh failed")
	}

	// seed the bootstrap admin account when configured
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := api.Users().EnsureAdmin("Administrator", cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin account")
		}
	}

	// category article counts are an eventually consistent read model,
	// recomputed on a timer rather than on every article write
	stopRefresh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.CountRefreshMins) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := api.Categories().RefreshArticleCounts(); err != nil {
					log.Error().Err(err).Msg("category count refresh failed")
				}
			case <-stopRefresh:
				return
			}
		}
	}()

	r := router.SetupRouter(api, cfg.UploadURLPath, cfg.UploadDir)
	server := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stopRefresh)

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
