package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/service"
)

type registerPayload struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type forgotPasswordPayload struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordPayload struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type profilePayload struct {
	Name             *string `json:"name"`
	Bio              *string `json:"bio"`
	Avatar           *string `json:"avatar"`
	FacebookURL      *string `json:"facebookUrl"`
	TwitterURL       *string `json:"twitterUrl"`
	LinkedInURL      *string `json:"linkedinUrl"`
	InstagramURL     *string `json:"instagramUrl"`
	NewsletterOptIn  *bool   `json:"newsletter"`
	NotifyOnComments *bool   `json:"notifyOnComments"`
	NotifyOnReplies  *bool   `json:"notifyOnReplies"`
}

// setTokenCookie mirrors the token into an HTTP-only cookie for browsers;
// API clients read it from the response body instead.
func (a *API) setTokenCookie(c *gin.Context, raw string) {
	c.SetCookie(tokenCookieName, raw, a.cookieMaxAge, "/", "", false, true)
}

// Register 处理用户注册
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, http.StatusBadRequest, "User with this email already exists")
			return
		}
		a.log.Error().Err(err).Msg("register user")
		respondError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	raw, err := a.tokens.Issue(user.ID)
	if err != nil {
		a.log.Error().Err(err).Msg("issue token")
		respondError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	a.setTokenCookie(c, raw)

	respondData(c, http.StatusCreated, gin.H{"user": user.Public(), "token": raw})
}

// Login 处理用户登录
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload) {
		return
	}

	user, err := a.users.Login(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		a.log.Error().Err(err).Msg("login")
		respondError(c, http.StatusInternalServerError, "Failed to login")
		return
	}

	raw, err := a.tokens.Issue(user.ID)
	if err != nil {
		a.log.Error().Err(err).Msg("issue token")
		respondError(c, http.StatusInternalServerError, "Failed to login")
		return
	}
	a.setTokenCookie(c, raw)

	respondData(c, http.StatusOK, gin.H{"user": user.Public(), "token": raw})
}

// Logout clears the client-held cookie. Issued tokens stay valid until
// natural expiry; there is no server-side revocation.
func (a *API) Logout(c *gin.Context) {
	c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	respondMessage(c, http.StatusOK, "Logout successful")
}

// Me 返回当前登录用户信息
func (a *API) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	respondData(c, http.StatusOK, user.Public())
}

// UpdateProfile applies allow-listed profile changes for the current user.
func (a *API) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}

	var payload profilePayload
	if !bindJSON(c, &payload) {
		return
	}

	updated, err := a.users.UpdateProfile(user.ID, service.ProfileInput{
		Name:             payload.Name,
		Bio:              payload.Bio,
		Avatar:           payload.Avatar,
		FacebookURL:      payload.FacebookURL,
		TwitterURL:       payload.TwitterURL,
		LinkedInURL:      payload.LinkedInURL,
		InstagramURL:     payload.InstagramURL,
		NewsletterOptIn:  payload.NewsletterOptIn,
		NotifyOnComments: payload.NotifyOnComments,
		NotifyOnReplies:  payload.NotifyOnReplies,
	})
	if err != nil {
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("update profile")
		respondError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	respondData(c, http.StatusOK, updated.Public())
}

// ChangePassword 修改当前用户密码
func (a *API) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}

	var payload changePasswordPayload
	if !bindJSON(c, &payload) {
		return
	}

	if err := a.users.ChangePassword(user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("change password")
		respondError(c, http.StatusInternalServerError, "Failed to change password")
		return
	}
	respondMessage(c, http.StatusOK, "Password changed successfully")
}

// ForgotPassword answers identically whether or not the email exists so the
// endpoint cannot be used to enumerate accounts. Token delivery is an
// external concern; it is only logged here.
func (a *API) ForgotPassword(c *gin.Context) {
	var payload forgotPasswordPayload
	if !bindJSON(c, &payload) {
		return
	}

	resetToken, err := a.users.RequestPasswordReset(payload.Email)
	if err != nil {
		a.log.Error().Err(err).Msg("request password reset")
		respondError(c, http.StatusInternalServerError, "Failed to process password reset request")
		return
	}
	if resetToken != "" {
		a.log.Info().Str("email", payload.Email).Msg("password reset token generated")
	}

	respondMessage(c, http.StatusOK, "If an account with that email exists, a password reset link has been sent")
}

// ResetPassword 消费重置令牌并设置新密码
func (a *API) ResetPassword(c *gin.Context) {
	var payload resetPasswordPayload
	if !bindJSON(c, &payload) {
		return
	}

	if err := a.users.ResetPassword(payload.Token, payload.Password); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			respondError(c, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		a.log.Error().Err(err).Msg("reset password")
		respondError(c, http.StatusInternalServerError, "Failed to reset password")
		return
	}
	respondMessage(c, http.StatusOK, "Password reset successful")
}

// SaveArticle 收藏文章
func (a *API) SaveArticle(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.users.SaveArticle(user.ID, id); err != nil {
		if errors.Is(err, service.ErrArticleNotFound) {
			respondError(c, http.StatusNotFound, "Article not found")
			return
		}
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("save article")
		respondError(c, http.StatusInternalServerError, "Failed to save article")
		return
	}
	respondMessage(c, http.StatusOK, "Article saved")
}

// UnsaveArticle 取消收藏
func (a *API) UnsaveArticle(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.users.UnsaveArticle(user.ID, id); err != nil {
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("unsave article")
		respondError(c, http.StatusInternalServerError, "Failed to remove saved article")
		return
	}
	respondMessage(c, http.StatusOK, "Article removed from saved list")
}

// SavedArticles 返回当前用户收藏的文章
func (a *API) SavedArticles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return
	}
	articles, err := a.users.SavedArticles(user.ID)
	if err != nil {
		a.log.Error().Err(err).Uint("user_id", user.ID).Msg("list saved articles")
		respondError(c, http.StatusInternalServerError, "Failed to load saved articles")
		return
	}
	respondData(c, http.StatusOK, articles)
}
