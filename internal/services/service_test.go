package services

import (
	"fmt"
	"testing"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	s, err := store.New("sqlite", dsn)
	require.NoError(t, err)
	return s
}

func seedUser(t *testing.T, s *store.Store, username string) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, s.CreateUser(user))
	return user
}

func seedProject(t *testing.T, s *store.Store, ownerID string) *models.Project {
	t.Helper()

	project := &models.Project{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       "test project",
		Visibility: models.VisibilityPublic,
	}
	require.NoError(t, s.CreateProject(project))
	return project
}
