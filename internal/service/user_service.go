package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/newsroom/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidRole        = errors.New("invalid role")
)

const (
	bcryptCost    = 12
	resetTokenTTL = 10 * time.Minute
)

// UserService wraps user and credential related database operations.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// RegisterInput represents fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ProfileInput is the allow-listed set of profile fields a user may change.
// Anything else in the request body is rejected at the handler boundary.
type ProfileInput struct {
	Name             *string
	Bio              *string
	Avatar           *string
	FacebookURL      *string
	TwitterURL       *string
	LinkedInURL      *string
	InstagramURL     *string
	NewsletterOptIn  *bool
	NotifyOnComments *bool
	NotifyOnReplies  *bool
}

// AdminUserInput is the allow-listed set of fields an admin may change.
type AdminUserInput struct {
	Name     *string
	Role     *db.Role
	IsActive *bool
}

// Register creates a user with a bcrypt-hashed password. Email uniqueness is
// case-insensitive; the address is stored lowercase.
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existing db.User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashed),
		Role:     db.RoleUser,
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		// concurrent duplicate loses to the unique index on email
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials against an active account and stamps the last
// login time. A missing account and a wrong password return the identical
// error so callers cannot enumerate registered addresses.
func (s *UserService) Login(email, password string) (*db.User, error) {
	var user db.User
	err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the allow-listed profile fields.
func (s *UserService) UpdateProfile(id uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Bio != nil {
		updates["bio"] = strings.TrimSpace(*input.Bio)
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if input.FacebookURL != nil {
		updates["facebook_url"] = strings.TrimSpace(*input.FacebookURL)
	}
	if input.TwitterURL != nil {
		updates["twitter_url"] = strings.TrimSpace(*input.TwitterURL)
	}
	if input.LinkedInURL != nil {
		updates["linked_in_url"] = strings.TrimSpace(*input.LinkedInURL)
	}
	if input.InstagramURL != nil {
		updates["instagram_url"] = strings.TrimSpace(*input.InstagramURL)
	}
	if input.NewsletterOptIn != nil {
		updates["newsletter_opt_in"] = *input.NewsletterOptIn
	}
	if input.NotifyOnComments != nil {
		updates["notify_on_comments"] = *input.NotifyOnComments
	}
	if input.NotifyOnReplies != nil {
		updates["notify_on_replies"] = *input.NotifyOnReplies
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// ChangePassword re-hashes and stores the new password after verifying the
// current one.
func (s *UserService) ChangePassword(id uint, current, newPassword string) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}
	return s.db.Model(user).Update("password", string(hashed)).Error
}

// RequestPasswordReset generates a single-use reset token with a ten minute
// expiry. It returns an empty token without error when the email is unknown
// so the caller can answer identically in both cases.
func (s *UserService) RequestPasswordReset(email string) (string, error) {
	var user db.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	resetToken := hex.EncodeToString(buf)
	expires := time.Now().Add(resetTokenTTL)

	err = s.db.Model(&user).Updates(map[string]interface{}{
		"password_reset_token":   resetToken,
		"password_reset_expires": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return resetToken, nil
}

// ResetPassword consumes a reset token: sets the new hash and clears the
// token fields in one update.
func (s *UserService) ResetPassword(resetToken, newPassword string) error {
	if strings.TrimSpace(resetToken) == "" {
		return ErrInvalidResetToken
	}

	var user db.User
	err := s.db.Where("password_reset_token = ? AND password_reset_expires > ?", resetToken, time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"password":               string(hashed),
		"password_reset_token":   "",
		"password_reset_expires": nil,
	}).Error
}

// SaveArticle 收藏文章，重复收藏为幂等操作。
func (s *UserService) SaveArticle(userID, articleID uint) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	var article db.Article
	if err := s.db.First(&article, articleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	return s.db.Model(user).Association("SavedArticles").Append(&article)
}

// UnsaveArticle 取消收藏。
func (s *UserService) UnsaveArticle(userID, articleID uint) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}
	return s.db.Model(user).Association("SavedArticles").Delete(&db.Article{Model: gorm.Model{ID: articleID}})
}

// SavedArticles lists the user's saved articles, newest first.
func (s *UserService) SavedArticles(userID uint) ([]db.Article, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	var articles []db.Article
	if err := s.db.Model(user).Association("SavedArticles").Find(&articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// ListUsers returns all users, newest first.
func (s *UserService) ListUsers() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// AdminUpdate applies the admin allow-list: name, role and the active flag.
func (s *UserService) AdminUpdate(id uint, input AdminUserInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		updates["role"] = *input.Role
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(id)
}

// Delete removes a user permanently.
func (s *UserService) Delete(id uint) error {
	result := s.db.Unscoped().Delete(&db.User{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EnsureAdmin 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，
// 则创建一个管理员用户。
func (s *UserService) EnsureAdmin(name, email, password string) error {
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	var existing db.User
	err := s.db.Where("email = ?", trimmedEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcryptCost)
	if err != nil {
		return err
	}

	if name == "" {
		name = "Administrator"
	}
	return s.db.Create(&db.User{
		Name:          name,
		Email:         trimmedEmail,
		Password:      string(hashed),
		Role:          db.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
	}).Error
}

// UserStats 按角色统计用户数量。
type UserStats struct {
	Total   int64 `json:"total"`
	Users   int64 `json:"users"`
	Editors int64 `json:"editors"`
	Admins  int64 `json:"admins"`
	Active  int64 `json:"active"`
}

// Stats aggregates user counts per role.
func (s *UserService) Stats() (UserStats, error) {
	var stats UserStats
	if err := s.db.Model(&db.User{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.User{}).Where("role = ?", db.RoleUser).Count(&stats.Users).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.User{}).Where("role = ?", db.RoleEditor).Count(&stats.Editors).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.User{}).Where("role = ?", db.RoleAdmin).Count(&stats.Admins).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&db.User{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
