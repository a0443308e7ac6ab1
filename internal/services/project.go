package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/cache"
	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/google/uuid"
)

// ProjectService handles project CRUD, collaborator management, and the
// access checks that gate the activity stream. Access results are cached
// (TTL-bounded) so SSE reconnects do not hit the database per attempt.
type ProjectService struct {
	store       *store.Store
	memberCache cache.Cache[bool]
	cacheTTL    time.Duration
}

// NewProjectService creates a new project service
func NewProjectService(s *store.Store, memberCache cache.Cache[bool], cacheTTL time.Duration) *ProjectService {
	if memberCache == nil {
		memberCache = cache.NewMemoryCache[bool]()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ProjectService{
		store:       s,
		memberCache: memberCache,
		cacheTTL:    cacheTTL,
	}
}

// ProjectInput carries the fields for project creation and update
type ProjectInput struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility" binding:"omitempty,oneof=public private"`
	TechTags    []string `json:"tech_tags"`
}

// Create creates a project owned by ownerID
func (s *ProjectService) Create(ownerID string, input ProjectInput) (*models.Project, error) {
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	project := &models.Project{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Visibility:  visibility,
		TechTags:    models.TechTags(input.TechTags),
	}
	if err := s.store.CreateProject(project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// Get returns a project if the caller may view it: public projects are open,
// private ones require membership.
func (s *ProjectService) Get(ctx context.Context, projectID, userID string) (*models.Project, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	if project.Visibility == models.VisibilityPrivate {
		ok, err := s.HasAccess(ctx, projectID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrProjectAccessDenied
		}
	}
	return project, nil
}

// Update applies changes to a project; owner only.
func (s *ProjectService) Update(projectID, actorID string, input ProjectInput) (*models.Project, error) {
	project, err := s.requireOwner(projectID, actorID)
	if err != nil {
		return nil, err
	}

	project.Name = input.Name
	project.Description = input.Description
	if input.Visibility != "" {
		project.Visibility = input.Visibility
	}
	project.TechTags = models.TechTags(input.TechTags)

	if err := s.store.UpdateProject(project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// Delete removes a project and everything attached to it; owner only.
// Cached access entries for the owner and every collaborator are dropped
// so a live stream token cannot reattach to a deleted project.
func (s *ProjectService) Delete(ctx context.Context, projectID, actorID string) error {
	if _, err := s.requireOwner(projectID, actorID); err != nil {
		return err
	}

	collabs, err := s.store.ListCollaborators(projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if err := s.store.DeleteProject(projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	_ = s.memberCache.Delete(ctx, memberCacheKey(projectID, actorID))
	for _, collab := range collabs {
		_ = s.memberCache.Delete(ctx, memberCacheKey(projectID, collab.UserID))
	}
	return nil
}

// ListForUser returns all projects the user owns or collaborates on
func (s *ProjectService) ListForUser(userID string) ([]models.Project, error) {
	return s.store.ListProjectsByUser(userID)
}

// HasAccess reports whether userID is the owner or a collaborator of the
// project. Results are cached; collaborator changes invalidate the entry.
// A missing project propagates store.ErrRecordNotFound.
func (s *ProjectService) HasAccess(ctx context.Context, projectID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return cache.GetWithFetch(ctx, s.memberCache, memberCacheKey(projectID, userID), s.cacheTTL,
		func(ctx context.Context, key string) (bool, error) {
			return s.store.HasProjectAccess(projectID, userID)
		})
}

// AddCollaborator adds userID as a collaborator; owner only.
func (s *ProjectService) AddCollaborator(ctx context.Context, projectID, actorID, userID string) error {
	if _, err := s.requireOwner(projectID, actorID); err != nil {
		return err
	}

	collab := &models.ProjectCollaborator{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.RoleCollaborator,
	}
	if err := s.store.AddCollaborator(collab); err != nil {
		return err
	}
	_ = s.memberCache.Delete(ctx, memberCacheKey(projectID, userID))
	return nil
}

// RemoveCollaborator removes userID from the project; owner only.
func (s *ProjectService) RemoveCollaborator(ctx context.Context, projectID, actorID, userID string) error {
	if _, err := s.requireOwner(projectID, actorID); err != nil {
		return err
	}
	if err := s.store.RemoveCollaborator(projectID, userID); err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	_ = s.memberCache.Delete(ctx, memberCacheKey(projectID, userID))
	return nil
}

func (s *ProjectService) requireOwner(projectID, actorID string) (*models.Project, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actorID {
		return nil, ErrNotProjectOwner
	}
	return project, nil
}

func memberCacheKey(projectID, userID string) string {
	return "member:" + projectID + ":" + userID
}

// IsNotFound reports whether err is a missing-record lookup failure,
// so handlers can map it to 404 without importing the store package.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrRecordNotFound)
}
