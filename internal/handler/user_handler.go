package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/service"
)

type adminUserPayload struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

// AdminListUsers 后台用户列表
func (a *API) AdminListUsers(c *gin.Context) {
	users, err := a.users.ListUsers()
	if err != nil {
		a.log.Error().Err(err).Msg("admin list users")
		respondError(c, http.StatusInternalServerError, "Failed to load users")
		return
	}

	profiles := make([]gin.H, 0, len(users))
	for i := range users {
		profiles = append(profiles, gin.H{
			"user":      users[i].Public(),
			"isActive":  users[i].IsActive,
			"lastLogin": users[i].LastLogin,
		})
	}
	respondData(c, http.StatusOK, profiles)
}

// AdminUpdateUser 修改用户名称、角色或激活状态。
func (a *API) AdminUpdateUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload adminUserPayload
	if !bindJSON(c, &payload) {
		return
	}

	input := service.AdminUserInput{Name: payload.Name, IsActive: payload.IsActive}
	if payload.Role != nil {
		role := db.Role(*payload.Role)
		input.Role = &role
	}

	user, err := a.users.AdminUpdate(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, http.StatusBadRequest, "Role must be user, editor or admin")
		default:
			a.log.Error().Err(err).Msg("admin update user")
			respondError(c, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"user":     user.Public(),
		"isActive": user.IsActive,
	})
}

// AdminDeleteUser 删除用户，禁止删除自己。
func (a *API) AdminDeleteUser(c *gin.Context) {
	actor, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if actor.ID == id {
		respondError(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	if err := a.users.Delete(id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		a.log.Error().Err(err).Msg("admin delete user")
		respondError(c, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	respondMessage(c, http.StatusOK, "User deleted")
}

// AdminStats 汇总后台仪表盘所需的统计数据。
func (a *API) AdminStats(c *gin.Context) {
	articleStats, err := a.articles.Stats()
	if err != nil {
		a.log.Error().Err(err).Msg("article stats")
		respondError(c, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	userStats, err := a.users.Stats()
	if err != nil {
		a.log.Error().Err(err).Msg("user stats")
		respondError(c, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	commentStats, err := a.comments.Stats()
	if err != nil {
		a.log.Error().Err(err).Msg("comment stats")
		respondError(c, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"articles": articleStats,
		"users":    userStats,
		"comments": commentStats,
		"views":    articleStats.TotalViews,
	})
}

// AdminDashboard is the landing route behind the browser admin gate. The
// HTML shell is served elsewhere; this only confirms the gate passed.
func (a *API) AdminDashboard(c *gin.Context) {
	user, _ := currentUser(c)
	respondData(c, http.StatusOK, gin.H{"user": user.Public()})
}

// ProfilePage 浏览器端的账号页，未登录时由 RequireAuthWeb 重定向到 /login。
func (a *API) ProfilePage(c *gin.Context) {
	user, _ := currentUser(c)
	respondData(c, http.StatusOK, gin.H{"user": user.Public()})
}
