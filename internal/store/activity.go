package store

import (
	"errors"
	"fmt"

	"github.com/brandoncintron/power-projects-sub000/internal/models"

	"gorm.io/gorm"
)

// DefaultActivityLimit caps how many records a live feed snapshot returns
const DefaultActivityLimit = 50

// AppendActivity inserts a new activity record. The (project_id,
// github_event_id) unique index makes redelivered webhooks a no-op:
// duplicates return ErrDuplicateEvent and leave the stored record untouched.
func (s *Store) AppendActivity(activity *models.Activity) error {
	if err := s.db.Create(activity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// RecentActivity returns up to limit records for the project ordered
// newest-first by event timestamp. Limit is clamped to DefaultActivityLimit.
func (s *Store) RecentActivity(projectID string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > DefaultActivityLimit {
		limit = DefaultActivityLimit
	}

	var activities []models.Activity
	err := s.db.
		Where("project_id = ?", projectID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return activities, nil
}

// ListActivity returns a page of the project's full activity history,
// newest-first, along with pagination metadata.
func (s *Store) ListActivity(
	projectID string,
	params PaginationParams,
) ([]models.Activity, PaginationResult, error) {
	query := s.db.Model(&models.Activity{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PaginationResult{}, fmt.Errorf("count activity: %w", err)
	}

	pagination := CalculatePagination(total, params.Page, params.PageSize)

	var activities []models.Activity
	err := query.
		Order("timestamp DESC").
		Offset((pagination.CurrentPage - 1) * pagination.PageSize).
		Limit(pagination.PageSize).
		Find(&activities).Error
	if err != nil {
		return nil, PaginationResult{}, fmt.Errorf("list activity: %w", err)
	}

	return activities, pagination, nil
}
