package profiles

import (
	"strings"
	"time"
)

// Role separates readers from authors. Elevation is self-service: a reader
// upgrades their own profile with no approval step.
type Role string

const (
	RoleReader Role = "reader"
	RoleAuthor Role = "author"
)

// Profile is a reader or author account: identity, credentials, and the
// public researcher persona shown on articles.
type Profile struct {
	ID           string    `gorm:"column:id;primaryKey;size:36;not null"`
	Email        string    `gorm:"column:email;size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:128;not null"`
	DisplayName  string    `gorm:"column:display_name;size:320"`
	Bio          string    `gorm:"column:bio;type:text"`
	Role         Role      `gorm:"column:role;size:16;not null;default:'reader'"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// IsAuthor reports whether the profile may use the author console.
func (p Profile) IsAuthor() bool {
	return p.Role == RoleAuthor
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
