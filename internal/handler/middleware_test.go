package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsroom/internal/config"
	"github.com/newsroom/internal/db"
	"github.com/newsroom/internal/handler"
	"github.com/newsroom/internal/router"
	"github.com/newsroom/internal/token"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "handler-test-secret"

var (
	ginOnce     sync.Once
	handlerDBID int64
)

func setupHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared&_busy_timeout=5000", atomic.AddInt64(&handlerDBID, 1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	cfg := config.AppConfig{
		JWTSecret:    testJWTSecret,
		TokenTTL:     time.Hour,
		SiteBaseURL:  "http://localhost:8080",
		SiteName:     "Bahadurgarh News",
		TrendingDays: 7,
	}
	api := handler.NewAPI(gdb, cfg, zerolog.Nop())
	r := router.SetupRouter(api, "", "")

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return r, gdb
}

// seedUser creates an active account with the password "password123" and
// returns it with a fresh session token.
func seedUser(t *testing.T, gdb *gorm.DB, name, email string, role db.Role) (*db.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash seed password: %v", err)
	}
	user := db.User{Name: name, Email: email, Password: string(hash), Role: role, IsActive: true}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}

	raw, err := token.NewService(testJWTSecret, time.Hour).Issue(user.ID)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return &user, raw
}

func seedPublishedArticle(t *testing.T, gdb *gorm.DB, authorID uint, title, category string) *db.Article {
	t.Helper()

	article := db.Article{
		Title:            title,
		ShortDescription: "Short description for " + title,
		Content:          "Body of " + title,
		AuthorID:         authorID,
		Category:         category,
		Status:           db.StatusPublished,
		AllowComments:    true,
		ReadingTime:      1,
		PublishDate:      time.Now(),
		Slug:             fmt.Sprintf("%s-%d", strings.ReplaceAll(strings.ToLower(title), " ", "-"), time.Now().UnixNano()),
	}
	if err := gdb.Create(&article).Error; err != nil {
		t.Fatalf("failed to seed article %q: %v", title, err)
	}
	return &article
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, r http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var envelope apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return envelope
}

func TestAuthenticateRejectsAnonymous(t *testing.T) {
	r, _ := setupHandlerTest(t)

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if envelope := decodeEnvelope(t, w); envelope.Success {
		t.Fatalf("expected success=false in error envelope")
	}
}

func TestAuthenticateAcceptsBearerToken(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	user, raw := seedUser(t, gdb, "Reader", "reader@example.com", db.RoleUser)

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", raw, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), user.Email) {
		t.Fatalf("expected profile email in response")
	}
}

func TestAuthenticateAcceptsCookieToken(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Reader", "cookie@example.com", db.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie token, got %d", w.Code)
	}
}

func TestAuthenticateRejectsDeactivatedAccount(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	user, raw := seedUser(t, gdb, "Banned", "banned@example.com", db.RoleUser)

	if err := gdb.Model(&db.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	w := doRequest(t, r, http.MethodGet, "/api/auth/me", raw, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deactivated account, got %d", w.Code)
	}
}

func TestEditorGateAcceptsAdmin(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Admin", "admin@example.com", db.RoleAdmin)

	w := doRequest(t, r, http.MethodGet, "/admin/api/articles", raw, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected admin to pass the editor gate, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminGateRejectsEditor(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Editor", "editor@example.com", db.RoleEditor)

	// editors reach the article desk
	if w := doRequest(t, r, http.MethodGet, "/admin/api/articles", raw, nil); w.Code != http.StatusOK {
		t.Fatalf("expected editor to pass the editor gate, got %d", w.Code)
	}

	// but not user management
	w := doRequest(t, r, http.MethodGet, "/admin/api/users", raw, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for editor on admin route, got %d", w.Code)
	}
}

func TestRoleGateRejectsRegularUser(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Reader", "user@example.com", db.RoleUser)

	w := doRequest(t, r, http.MethodGet, "/admin/api/articles", raw, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user on editor route, got %d", w.Code)
	}
}

func TestAuthWebRedirectsAnonymousToLogin(t *testing.T) {
	r, _ := setupHandlerTest(t)

	w := doRequest(t, r, http.MethodGet, "/profile", "", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/login" {
		t.Fatalf("expected redirect to /login, got %q", location)
	}
}

func TestAuthWebAdmitsAnyLoggedInRole(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	user, raw := seedUser(t, gdb, "Reader", "profile-web@example.com", db.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for logged-in cookie, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), user.Email) {
		t.Fatalf("expected profile payload in response")
	}
}

func TestAdminWebRedirectsAnonymousToLogin(t *testing.T) {
	r, _ := setupHandlerTest(t)

	w := doRequest(t, r, http.MethodGet, "/admin/dashboard", "", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/admin/login" {
		t.Fatalf("expected redirect to /admin/login, got %q", location)
	}
}

func TestAdminWebRedirectsNonAdminHome(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Reader", "web-user@example.com", db.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", w.Code)
	}
	if location := w.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect to /, got %q", location)
	}
}

func TestAdminWebAdmitsAdminCookie(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	_, raw := seedUser(t, gdb, "Admin", "web-admin@example.com", db.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin cookie, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminWebClearsInvalidCookie(t *testing.T) {
	r, _ := setupHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", w.Code)
	}
	setCookie := strings.Join(w.Header().Values("Set-Cookie"), "; ")
	if !strings.Contains(setCookie, "token=") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Fatalf("expected invalid cookie to be cleared, got %q", setCookie)
	}
}

func TestOptionalAuthStaysAnonymousOnBadToken(t *testing.T) {
	r, gdb := setupHandlerTest(t)
	author, _ := seedUser(t, gdb, "Author", "author@example.com", db.RoleEditor)
	seedPublishedArticle(t, gdb, author.ID, "Open Read", "india")

	// a stale token must not break the public listing
	w := doRequest(t, r, http.MethodGet, "/api/articles", "expired-or-garbage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on public route with bad token, got %d", w.Code)
	}
}
