package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/service"
)

type categoryPayload struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"order"`
	ParentID    *uint   `json:"parentId"`
}

type createCategoryPayload struct {
	Name        string  `json:"name" binding:"required,max=50"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"isActive"`
	SortOrder   *int    `json:"order"`
	ParentID    *uint   `json:"parentId"`
}

// AdminListCategories 后台栏目列表（含停用栏目）
func (a *API) AdminListCategories(c *gin.Context) {
	categories, err := a.categories.ListAll()
	if err != nil {
		a.log.Error().Err(err).Msg("admin list categories")
		respondError(c, http.StatusInternalServerError, "Failed to load categories")
		return
	}
	respondData(c, http.StatusOK, categories)
}

// CreateCategory 创建栏目
func (a *API) CreateCategory(c *gin.Context) {
	var payload createCategoryPayload
	if !bindJSON(c, &payload) {
		return
	}

	category, err := a.categories.Create(service.CategoryInput{
		Name:        payload.Name,
		Description: payload.Description,
		Color:       payload.Color,
		Icon:        payload.Icon,
		IsActive:    payload.IsActive,
		SortOrder:   payload.SortOrder,
		ParentID:    payload.ParentID,
	})
	if err != nil {
		if errors.Is(err, service.ErrCategoryExists) {
			respondError(c, http.StatusBadRequest, "Category already exists")
			return
		}
		a.log.Error().Err(err).Msg("create category")
		respondError(c, http.StatusInternalServerError, "Failed to create category")
		return
	}
	respondData(c, http.StatusCreated, category)
}

// UpdateCategory 更新栏目
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload categoryPayload
	if !bindJSON(c, &payload) {
		return
	}

	category, err := a.categories.Update(id, service.CategoryInput{
		Name:        payload.Name,
		Description: payload.Description,
		Color:       payload.Color,
		Icon:        payload.Icon,
		IsActive:    payload.IsActive,
		SortOrder:   payload.SortOrder,
		ParentID:    payload.ParentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, http.StatusNotFound, "Category not found")
		case errors.Is(err, service.ErrCategoryExists):
			respondError(c, http.StatusBadRequest, "Category already exists")
		default:
			a.log.Error().Err(err).Msg("update category")
			respondError(c, http.StatusInternalServerError, "Failed to update category")
		}
		return
	}
	respondData(c, http.StatusOK, category)
}

// DeleteCategory 删除栏目
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.categories.Delete(id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, http.StatusNotFound, "Category not found")
			return
		}
		a.log.Error().Err(err).Msg("delete category")
		respondError(c, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	respondMessage(c, http.StatusOK, "Category deleted")
}

// RefreshCategoryCounts triggers the eventually consistent count recompute.
func (a *API) RefreshCategoryCounts(c *gin.Context) {
	if err := a.categories.RefreshArticleCounts(); err != nil {
		a.log.Error().Err(err).Msg("refresh category counts")
		respondError(c, http.StatusInternalServerError, "Failed to refresh category counts")
		return
	}
	respondMessage(c, http.StatusOK, "Category article counts refreshed")
}
