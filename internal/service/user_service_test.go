package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/newsroom/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service-%d?mode=memory&cache=shared&_busy_timeout=5000", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return gdb
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	if _, err := svc.Register(RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret12"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(RegisterInput{Name: "Asha Again", Email: "ASHA@Example.COM", Password: "other456"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterConcurrentDuplicateMapsToEmailTaken(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	// both registrations pass the existence check during the other's slow
	// password hash; the loser must surface as ErrEmailTaken, not a raw
	// constraint error
	start := make(chan struct{})
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Register(RegisterInput{Name: "Racer", Email: "racer@example.com", Password: "secret12"})
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var succeeded, taken int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrEmailTaken):
			taken++
		default:
			t.Fatalf("expected ErrEmailTaken for the losing registration, got %v", err)
		}
	}
	if succeeded != 1 || taken != 1 {
		t.Fatalf("expected one success and one ErrEmailTaken, got %d successes and %d conflicts", succeeded, taken)
	}

	var count int64
	if err := gdb.Model(&db.User{}).Where("email = ?", "racer@example.com").Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one stored account, got %d", count)
	}
}

func TestLoginPathsAreIndistinguishable(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	if _, err := svc.Register(RegisterInput{Name: "Ravi", Email: "ravi@example.com", Password: "secret12"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Login("ravi@example.com", "not-the-password")
	_, unknownEmail := svc.Login("nobody@example.com", "secret12")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("login failures must be identical: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	user, err := svc.Register(RegisterInput{Name: "Meera", Email: "meera@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := gdb.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	if _, err := svc.Login("meera@example.com", "secret12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for inactive account, got %v", err)
	}
}

func TestLoginStampsLastLogin(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	if _, err := svc.Register(RegisterInput{Name: "Dev", Email: "dev@example.com", Password: "secret12"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Login("dev@example.com", "secret12")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.LastLogin == nil {
		t.Fatal("expected last login to be stamped")
	}
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	user, err := svc.Register(RegisterInput{Name: "Nina", Email: "nina@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong", "newpass99"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "secret12", "newpass99"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login("nina@example.com", "newpass99"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordResetUnknownEmailPersistsNothing(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	resetToken, err := svc.RequestPasswordReset("ghost@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if resetToken != "" {
		t.Fatalf("expected empty token for unknown email, got %q", resetToken)
	}

	var count int64
	if err := gdb.Model(&db.User{}).Where("password_reset_token <> ''").Count(&count).Error; err != nil {
		t.Fatalf("count reset tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no persisted reset tokens, got %d", count)
	}
}

func TestPasswordResetFlowIsSingleUse(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	if _, err := svc.Register(RegisterInput{Name: "Kiran", Email: "kiran@example.com", Password: "secret12"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	resetToken, err := svc.RequestPasswordReset("kiran@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if resetToken == "" {
		t.Fatal("expected a reset token for a known email")
	}

	if err := svc.ResetPassword(resetToken, "brandnew1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Login("kiran@example.com", "brandnew1"); err != nil {
		t.Fatalf("login with reset password: %v", err)
	}

	if err := svc.ResetPassword(resetToken, "again123"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	user, err := svc.Register(RegisterInput{Name: "Tara", Email: "tara@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resetToken, err := svc.RequestPasswordReset("tara@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}

	expired := time.Now().Add(-time.Minute)
	if err := gdb.Model(user).Update("password_reset_expires", expired).Error; err != nil {
		t.Fatalf("expire token: %v", err)
	}

	if err := svc.ResetPassword(resetToken, "toolate12"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken for expired token, got %v", err)
	}
}

func TestSaveArticleIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	users := NewUserService(gdb)
	articles := NewArticleService(gdb)

	user, err := users.Register(RegisterInput{Name: "Reader", Email: "reader@example.com", Password: "secret12"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	article, err := articles.Create(ArticleInput{
		Title:            "Monsoon Update",
		ShortDescription: "Rain expected",
		Content:          "Heavy rain across the district.",
		Category:         "india",
		AuthorID:         user.ID,
	})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}

	if err := users.SaveArticle(user.ID, article.ID); err != nil {
		t.Fatalf("save article: %v", err)
	}
	if err := users.SaveArticle(user.ID, article.ID); err != nil {
		t.Fatalf("save article twice: %v", err)
	}

	saved, err := users.SavedArticles(user.ID)
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved article, got %d", len(saved))
	}

	if err := users.UnsaveArticle(user.ID, article.ID); err != nil {
		t.Fatalf("unsave article: %v", err)
	}
	saved, err = users.SavedArticles(user.ID)
	if err != nil {
		t.Fatalf("list saved after unsave: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("expected 0 saved articles, got %d", len(saved))
	}
}

func TestEnsureAdminSeedsOnce(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewUserService(gdb)

	if err := svc.EnsureAdmin("Root", "root@example.com", "rootpass1"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := svc.EnsureAdmin("Root", "root@example.com", "different"); err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.User{}).Where("role = ?", db.RoleAdmin).Count(&count).Error; err != nil {
		t.Fatalf("count admins: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin, got %d", count)
	}

	user, err := svc.Login("root@example.com", "rootpass1")
	if err != nil {
		t.Fatalf("login as seeded admin: %v", err)
	}
	if user.Role != db.RoleAdmin {
		t.Fatalf("expected admin role, got %s", user.Role)
	}
}
