package handlers

import (
	"errors"
	"net/http"

	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects     *services.ProjectService
	repositories *services.RepositoryService
}

func NewProjectHandler(
	projects *services.ProjectService,
	repositories *services.RepositoryService,
) *ProjectHandler {
	return &ProjectHandler{
		projects:     projects,
		repositories: repositories,
	}
}

// Create makes a new project owned by the caller
func (h *ProjectHandler) Create(c *gin.Context) {
	var input services.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Create(c.GetString(ContextUserID), input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// List returns all projects the caller owns or collaborates on
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.ListForUser(c.GetString(ContextUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// Get returns one project
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Update modifies a project; owner only
func (h *ProjectHandler) Update(c *gin.Context) {
	var input services.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Update(c.Param("id"), c.GetString(ContextUserID), input)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Delete removes a project; owner only
func (h *ProjectHandler) Delete(c *gin.Context) {
	err := h.projects.Delete(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}

type collaboratorInput struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddCollaborator grants a user access to the project; owner only
func (h *ProjectHandler) AddCollaborator(c *gin.Context) {
	var input collaboratorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.projects.AddCollaborator(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID), input.UserID)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "collaborator added"})
}

// RemoveCollaborator revokes a user's access; owner only
func (h *ProjectHandler) RemoveCollaborator(c *gin.Context) {
	err := h.projects.RemoveCollaborator(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID), c.Param("userID"))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collaborator removed"})
}

// ConnectRepository links a verified GitHub repository to the project; owner only
func (h *ProjectHandler) ConnectRepository(c *gin.Context) {
	var input services.ConnectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.repositories.Connect(c.Request.Context(), c.Param("id"), c.GetString(ContextUserID), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRepositoryNotFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "repository not found on GitHub"})
		case errors.Is(err, store.ErrRepositoryConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "project already has a repository connected"})
		default:
			respondProjectError(c, err)
		}
		return
	}
	// The secret is shown once, at creation, for configuring the webhook
	// on the GitHub side. It is never returned again.
	c.JSON(http.StatusCreated, gin.H{
		"connection":     conn,
		"webhook_secret": conn.WebhookSecret,
	})
}

// GetRepository returns the project's repository connection
func (h *ProjectHandler) GetRepository(c *gin.Context) {
	conn, err := h.repositories.Get(c.Param("id"))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// DisconnectRepository unlinks the project's repository; owner only
func (h *ProjectHandler) DisconnectRepository(c *gin.Context) {
	err := h.repositories.Disconnect(c.Param("id"), c.GetString(ContextUserID))
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "repository disconnected"})
}

// respondProjectError maps service errors to JSON responses shared by
// the project routes.
func respondProjectError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case errors.Is(err, services.ErrNotProjectOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "only the project owner may do this"})
	case errors.Is(err, services.ErrProjectAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
