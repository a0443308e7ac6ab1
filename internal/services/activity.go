package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"

	"github.com/google/uuid"
)

// ActivityService persists activity records and fans them out to live
// stream subscribers. Persistence and broadcast are decoupled: a record
// that fails to reach some subscribers is still stored, and a duplicate
// delivery is dropped without touching the registry.
type ActivityService struct {
	store    *store.Store
	registry *stream.Registry
	metrics  metrics.Recorder
}

// NewActivityService creates a new activity service
func NewActivityService(s *store.Store, registry *stream.Registry, recorder metrics.Recorder) *ActivityService {
	if recorder == nil {
		recorder = metrics.NewNoopMetrics()
	}
	return &ActivityService{
		store:    s,
		registry: registry,
		metrics:  recorder,
	}
}

// ActivityInput is a normalized activity ready for recording
type ActivityInput struct {
	ProjectID      string
	GithubEventID  string
	EventType      models.ActivityEventType
	ActorUsername  string
	ActorAvatarURL string
	Summary        string
	TargetURL      string
	Branch         string
	Timestamp      time.Time
}

// Record stores the activity and broadcasts it to the project's live
// connections. A duplicate github event id is treated as already
// delivered and returns the sentinel without broadcasting.
func (s *ActivityService) Record(input ActivityInput) (*models.Activity, error) {
	ts := input.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	activity := &models.Activity{
		ID:             uuid.New().String(),
		ProjectID:      input.ProjectID,
		GithubEventID:  input.GithubEventID,
		EventType:      input.EventType,
		ActorUsername:  input.ActorUsername,
		ActorAvatarURL: input.ActorAvatarURL,
		Summary:        input.Summary,
		TargetURL:      input.TargetURL,
		Branch:         input.Branch,
		Timestamp:      ts,
	}

	if err := s.store.AppendActivity(activity); err != nil {
		if errors.Is(err, store.ErrDuplicateEvent) {
			s.metrics.RecordActivityIngested("duplicate")
			return nil, err
		}
		s.metrics.RecordActivityIngested("error")
		return nil, fmt.Errorf("append activity: %w", err)
	}
	s.metrics.RecordActivityIngested("stored")

	delivered, failed := s.registry.Broadcast(input.ProjectID, stream.NewActivityEvent(*activity))
	s.metrics.RecordBroadcast(delivered, failed)

	return activity, nil
}

// Recent returns the newest activity for a project, newest first,
// capped at the feed limit. Used for the initial stream snapshot.
func (s *ActivityService) Recent(projectID string, limit int) ([]models.Activity, error) {
	return s.store.RecentActivity(projectID, limit)
}

// History returns a paginated activity listing for a project
func (s *ActivityService) History(projectID string, params store.PaginationParams) ([]models.Activity, store.PaginationResult, error) {
	return s.store.ListActivity(projectID, params)
}
