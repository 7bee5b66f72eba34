package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxUploadBytes = 10 << 20

// UploadImage 处理文章配图上传请求
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No image file in request")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "Image exceeds the 10MB limit")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "Only image files are allowed")
		return
	}

	// probe the actual pixel data, the declared content type is not trusted
	src, err := file.Open()
	if err != nil {
		a.log.Error().Err(err).Msg("open upload")
		respondError(c, http.StatusInternalServerError, "Failed to store image")
		return
	}
	cfg, _, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unrecognized image format")
		return
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		respondError(c, http.StatusBadRequest, "Image dimensions are invalid")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.log.Error().Err(err).Msg("create upload dir")
		respondError(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(a.uploadDir, newFilename)); err != nil {
		a.log.Error().Err(err).Msg("save upload")
		respondError(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"url":    fmt.Sprintf("%s/%s", a.uploadURL, newFilename),
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}
