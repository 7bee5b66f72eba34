package db

import (
	"time"

	"gorm.io/gorm"
)

// Role 定义用户角色，user < editor < admin。
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleUser:   1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// Valid reports whether the role is one of the closed enum.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// HasAtLeast reports whether the role grants at least the given role's
// privileges. Unknown roles grant nothing.
func (r Role) HasAtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required] && roleRank[required] > 0
}

// User 定义了用户模型
type User struct {
	gorm.Model
	Name          string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	Password      string `gorm:"not null" json:"-"`
	Role          Role   `gorm:"default:user;index"`
	Avatar        string
	Bio           string
	IsActive      bool `gorm:"default:true;index"`
	EmailVerified bool `gorm:"default:false"`

	PasswordResetToken   string     `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	LastLogin            *time.Time

	SavedArticles []Article `gorm:"many2many:user_saved_articles;" json:"-"`

	NewsletterOptIn  bool `gorm:"default:true"`
	NotifyOnComments bool `gorm:"default:true"`
	NotifyOnReplies  bool `gorm:"default:true"`

	FacebookURL  string
	TwitterURL   string
	LinkedInURL  string
	InstagramURL string
}

// PublicProfile is the caller-facing projection of a user. The password hash
// and reset token fields never leave the service layer.
type PublicProfile struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar"`
	Bio          string    `json:"bio"`
	FacebookURL  string    `json:"facebookUrl,omitempty"`
	TwitterURL   string    `json:"twitterUrl,omitempty"`
	LinkedInURL  string    `json:"linkedinUrl,omitempty"`
	InstagramURL string    `json:"instagramUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public 返回用户的公开信息
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Avatar:       u.Avatar,
		Bio:          u.Bio,
		FacebookURL:  u.FacebookURL,
		TwitterURL:   u.TwitterURL,
		LinkedInURL:  u.LinkedInURL,
		InstagramURL: u.InstagramURL,
		CreatedAt:    u.CreatedAt,
	}
}
