package store

import (
	"errors"
	"fmt"

	"github.com/brandoncintron/power-projects-sub000/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateProject(project *models.Project) error {
	return s.db.Create(project).Error
}

func (s *Store) GetProject(id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (s *Store) UpdateProject(project *models.Project) error {
	return s.db.Save(project).Error
}

// DeleteProject removes a project along with its collaborators, repository
// connection and activity log in one transaction.
func (s *Store) DeleteProject(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectCollaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.RepositoryConnection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

// ListProjectsByUser returns all projects the user owns or collaborates on.
func (s *Store) ListProjectsByUser(userID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.
		Distinct("projects.*").
		Joins("LEFT JOIN project_collaborators pc ON pc.project_id = projects.id").
		Where("projects.owner_id = ? OR pc.user_id = ?", userID, userID).
		Order("projects.updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// HasProjectAccess reports whether the user is the project owner or a
// registered collaborator. The SSE endpoint gates registration on this.
func (s *Store) HasProjectAccess(projectID, userID string) (bool, error) {
	project, err := s.GetProject(projectID)
	if err != nil {
		return false, err
	}
	if project.OwnerID == userID {
		return true, nil
	}

	var count int64
	err = s.db.Model(&models.ProjectCollaborator{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddCollaborator registers a user as a project collaborator (idempotent).
func (s *Store) AddCollaborator(collab *models.ProjectCollaborator) error {
	if err := s.db.Create(collab).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil // Already a collaborator
		}
		return fmt.Errorf("add collaborator: %w", err)
	}
	return nil
}

// ListCollaborators returns the project's collaborator rows
func (s *Store) ListCollaborators(projectID string) ([]models.ProjectCollaborator, error) {
	var collabs []models.ProjectCollaborator
	err := s.db.Where("project_id = ?", projectID).Find(&collabs).Error
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	return collabs, nil
}

func (s *Store) RemoveCollaborator(projectID, userID string) error {
	return s.db.
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectCollaborator{}).Error
}

// CreateRepositoryConnection links a GitHub repository to a project.
// One connection per project.
func (s *Store) CreateRepositoryConnection(conn *models.RepositoryConnection) error {
	if err := s.db.Create(conn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRepositoryConflict
		}
		return fmt.Errorf("create repository connection: %w", err)
	}
	return nil
}

func (s *Store) GetRepositoryConnection(projectID string) (*models.RepositoryConnection, error) {
	var conn models.RepositoryConnection
	if err := s.db.First(&conn, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &conn, nil
}

func (s *Store) UpdateRepositoryConnection(conn *models.RepositoryConnection) error {
	return s.db.Save(conn).Error
}

func (s *Store) DeleteRepositoryConnection(projectID string) error {
	return s.db.Where("project_id = ?", projectID).Delete(&models.RepositoryConnection{}).Error
}
