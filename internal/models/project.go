package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Project visibility constants
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Collaborator role constants
const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
)

// TechTags stores the project's technology tags as a JSON array
type TechTags []string

// Value implements the driver.Valuer interface for database storage
func (t TechTags) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL, which is valid here
	}
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for database retrieval
func (t *TechTags) Scan(value any) error {
	if value == nil {
		*t = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal TechTags value: %v", value)
	}

	var result TechTags
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*t = result
	return nil
}

// Project represents a side project created and owned by a user
type Project struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID     string `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Visibility  string `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"` // "public" or "private"

	TechTags TechTags `gorm:"type:json" json:"tech_tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// ProjectCollaborator joins a user to a project they contribute to
type ProjectCollaborator struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProjectID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_user,priority:1" json:"project_id"`
	UserID    string `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_user,priority:2" json:"user_id"`
	Role      string `gorm:"type:varchar(20);not null;default:'collaborator'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (ProjectCollaborator) TableName() string {
	return "project_collaborators"
}
