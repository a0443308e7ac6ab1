package models

import (
	"time"
)

// Repository connection status constants
const (
	RepoStatusActive   = "active"
	RepoStatusNotFound = "not_found" // Upstream repo deleted or access revoked
)

// RepositoryConnection links a project to the GitHub repository whose
// webhook deliveries feed its activity stream. One repository per project.
type RepositoryConnection struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID string `gorm:"type:varchar(36);not null;uniqueIndex" json:"project_id"`

	RepoOwner    string `gorm:"type:varchar(100);not null" json:"repo_owner"`
	RepoName     string `gorm:"type:varchar(200);not null" json:"repo_name"`
	RepoFullName string `gorm:"type:varchar(300);not null;index" json:"repo_full_name"` // owner/repo format

	// Per-connection HMAC secret used to verify webhook signatures
	WebhookSecret string `gorm:"type:varchar(100);not null" json:"-"`

	Status         string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastDeliveryAt *time.Time `json:"last_delivery_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (RepositoryConnection) TableName() string {
	return "repository_connections"
}
