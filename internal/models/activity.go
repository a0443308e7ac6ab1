package models

import (
	"time"
)

// ActivityEventType classifies the GitHub event that produced an activity
type ActivityEventType string

const (
	EventPush        ActivityEventType = "push"
	EventPullRequest ActivityEventType = "pull_request"
	EventIssue       ActivityEventType = "issues"
	EventComment     ActivityEventType = "issue_comment"
	EventStar        ActivityEventType = "star"
)

// Activity is an immutable record of one GitHub event on a project's
// connected repository. Records are written once by webhook ingestion and
// never updated (no UpdatedAt).
type Activity struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// Partition key: all storage and broadcast operations are scoped to a project
	ProjectID string `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_project_event,priority:1" json:"project_id"`

	// GithubEventID is the webhook delivery's idempotency key. Duplicate
	// deliveries for the same project are silently dropped.
	GithubEventID string `gorm:"type:varchar(100);not null;uniqueIndex:idx_project_event,priority:2" json:"github_event_id"`

	EventType ActivityEventType `gorm:"type:varchar(30);not null" json:"event_type"`
	Action    string            `gorm:"type:varchar(30)"          json:"action,omitempty"`

	ActorUsername  string `gorm:"type:varchar(100)" json:"actor_username"`
	ActorAvatarURL string `gorm:"type:varchar(500)" json:"actor_avatar_url,omitempty"`

	Summary   string `gorm:"type:varchar(500);not null" json:"summary"`
	TargetURL string `gorm:"type:varchar(500)"          json:"target_url,omitempty"`
	Branch    string `gorm:"type:varchar(200)"          json:"branch,omitempty"`

	// Event occurrence time reported by GitHub, used for newest-first ordering
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activities"
}
