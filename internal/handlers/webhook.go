package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody caps webhook payload reads at 1 MiB
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhooks *services.WebhookService
}

func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive ingests one GitHub webhook delivery for a project. GitHub
// retries deliveries it considers failed, so duplicates and unsupported
// event types are acknowledged with 200 rather than errored.
func (h *WebhookHandler) Receive(c *gin.Context) {
	projectID := c.Param("id")
	eventName := c.GetHeader("X-GitHub-Event")
	deliveryID := c.GetHeader("X-GitHub-Delivery")
	signature := c.GetHeader("X-Hub-Signature-256")

	if eventName == "" || deliveryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing webhook headers"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	activity, err := h.webhooks.Process(projectID, eventName, deliveryID, signature, body)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no repository connection"})
		case errors.Is(err, services.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
		case errors.Is(err, store.ErrDuplicateEvent):
			c.JSON(http.StatusOK, gin.H{"message": "duplicate delivery ignored"})
		case errors.Is(err, services.ErrUnsupportedEvent):
			c.JSON(http.StatusOK, gin.H{"message": "event type ignored"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process delivery"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "activity recorded",
		"activity_id": activity.ID,
	})
}
