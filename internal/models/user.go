package models

import (
	"time"
)

type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `json:"full_name"`  // Display name shown on project pages
	AvatarURL    string `json:"avatar_url"` // Avatar shown in activity feeds

	// GitHub identity, populated once the user links a repository
	GithubUsername string `gorm:"index" json:"github_username"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
