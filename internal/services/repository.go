package services

import (
	"context"
	"fmt"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/google/uuid"
)

// RepositoryService links projects to GitHub repositories. A connection is
// created only after the repository is verified to exist, and each one gets
// its own webhook secret.
type RepositoryService struct {
	store    *store.Store
	verifier *GithubVerifier
}

// NewRepositoryService creates a new repository service
func NewRepositoryService(s *store.Store, verifier *GithubVerifier) *RepositoryService {
	return &RepositoryService{
		store:    s,
		verifier: verifier,
	}
}

// ConnectInput carries the fields for linking a repository to a project
type ConnectInput struct {
	RepoOwner string `json:"repo_owner" binding:"required,max=100"`
	RepoName  string `json:"repo_name" binding:"required,max=100"`
}

// Connect verifies the repository on GitHub and attaches it to the project;
// owner only. A project can hold at most one connection.
func (s *RepositoryService) Connect(ctx context.Context, projectID, actorID string, input ConnectInput) (*models.RepositoryConnection, error) {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actorID {
		return nil, ErrNotProjectOwner
	}

	if err := s.verifier.VerifyRepository(ctx, input.RepoOwner, input.RepoName); err != nil {
		return nil, err
	}

	secret, err := GenerateWebhookSecret()
	if err != nil {
		return nil, err
	}

	conn := &models.RepositoryConnection{
		ID:            uuid.New().String(),
		ProjectID:     projectID,
		RepoOwner:     input.RepoOwner,
		RepoName:      input.RepoName,
		RepoFullName:  input.RepoOwner + "/" + input.RepoName,
		WebhookSecret: secret,
		Status:        models.RepoStatusActive,
	}
	if err := s.store.CreateRepositoryConnection(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Get returns the project's repository connection
func (s *RepositoryService) Get(projectID string) (*models.RepositoryConnection, error) {
	return s.store.GetRepositoryConnection(projectID)
}

// Disconnect removes the project's repository connection; owner only.
func (s *RepositoryService) Disconnect(projectID, actorID string) error {
	project, err := s.store.GetProject(projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != actorID {
		return ErrNotProjectOwner
	}

	if err := s.store.DeleteRepositoryConnection(projectID); err != nil {
		return fmt.Errorf("disconnect repository: %w", err)
	}
	return nil
}
