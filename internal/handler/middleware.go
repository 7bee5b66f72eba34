package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/db"
)

const (
	tokenCookieName = "token"
	currentUserKey  = "__current_user"
)

// currentUser returns the identity attached by an auth middleware, if any.
func currentUser(c *gin.Context) (*db.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*db.User)
	return user, ok && user != nil
}

// tokenFromRequest reads the session token from the cookie or the
// Authorization header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(tokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(after)
	}
	return ""
}

// resolveUser verifies the token and loads an active account. Any failure
// returns nil without detail; the caller decides whether that is fatal.
func (a *API) resolveUser(c *gin.Context) *db.User {
	raw := tokenFromRequest(c)
	if raw == "" {
		return nil
	}
	userID, err := a.tokens.Verify(raw)
	if err != nil {
		return nil
	}
	user, err := a.users.Get(userID)
	if err != nil || !user.IsActive {
		return nil
	}
	return user
}

// Authenticate 校验 API 请求的会话令牌，失败时返回 401。
func (a *API) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.resolveUser(c)
		if user == nil {
			respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
			c.Abort()
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// proceeds anonymously otherwise. It never fails the request.
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := a.resolveUser(c); user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// AuthenticateWeb is the browser flavor: cookie only, never fails, clears a
// bad cookie so the client stops sending it.
func (a *API) AuthenticateWeb() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(tokenCookieName)
		if err != nil || cookie == "" {
			c.Next()
			return
		}

		userID, err := a.tokens.Verify(cookie)
		if err != nil {
			c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
			c.Next()
			return
		}
		user, err := a.users.Get(userID)
		if err != nil || !user.IsActive {
			c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
			c.Next()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole gates a route on the role partial order: admin passes every
// gate, editor passes editor gates. Runs after Authenticate.
func (a *API) RequireRole(required db.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
			c.Abort()
			return
		}
		if !user.Role.HasAtLeast(required) {
			respondError(c, http.StatusForbidden, "Access denied. Insufficient privileges.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuthWeb redirects anonymous browsers to the login page.
func (a *API) RequireAuthWeb() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdminWeb redirects rather than erroring: anonymous browsers go to
// the admin login page, authenticated non-admins back to the home page.
func (a *API) RequireAdminWeb() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		if !user.Role.HasAtLeast(db.RoleAdmin) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireOwnershipOrAdmin allows the resource owner or any admin. Returns
// false after writing the response when access is denied.
func requireOwnershipOrAdmin(c *gin.Context, ownerID uint) bool {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Access denied. Authentication required.")
		return false
	}
	if user.Role.HasAtLeast(db.RoleAdmin) {
		return true
	}
	if user.ID != ownerID {
		respondError(c, http.StatusForbidden, "Access denied. You can only access your own resources.")
		return false
	}
	return true
}
