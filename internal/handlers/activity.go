package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ActivityHandler struct {
	activities   *services.ActivityService
	projects     *services.ProjectService
	streamTokens *services.StreamTokenService
	registry     *stream.Registry
	metrics      metrics.Recorder

	feedLimit  int
	bufferSize int
	heartbeat  time.Duration
}

type ActivityHandlerConfig struct {
	FeedLimit         int
	StreamBufferSize  int
	HeartbeatInterval time.Duration
}

func NewActivityHandler(
	activities *services.ActivityService,
	projects *services.ProjectService,
	streamTokens *services.StreamTokenService,
	registry *stream.Registry,
	recorder metrics.Recorder,
	cfg ActivityHandlerConfig,
) *ActivityHandler {
	if recorder == nil {
		recorder = metrics.NewNoopMetrics()
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = store.DefaultActivityLimit
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	return &ActivityHandler{
		activities:   activities,
		projects:     projects,
		streamTokens: streamTokens,
		registry:     registry,
		metrics:      recorder,
		feedLimit:    cfg.FeedLimit,
		bufferSize:   cfg.StreamBufferSize,
		heartbeat:    cfg.HeartbeatInterval,
	}
}

// List returns a page of the project's activity history, newest first
func (h *ActivityHandler) List(c *gin.Context) {
	projectID := c.Param("id")
	if err := h.authorize(c, projectID, c.GetString(ContextUserID)); err != nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	params := store.NewPaginationParams(page, pageSize)
	activities, pagination, err := h.activities.History(projectID, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"pagination": pagination,
	})
}

// MintStreamToken issues a short-lived token granting the caller stream
// access to one project. Browsers pass it back in the stream query string
// since EventSource cannot set headers.
func (h *ActivityHandler) MintStreamToken(c *gin.Context) {
	projectID := c.Param("id")
	userID := c.GetString(ContextUserID)
	if err := h.authorize(c, projectID, userID); err != nil {
		return
	}

	token, expiresAt, err := h.streamTokens.Generate(userID, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mint stream token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.UTC(),
	})
}

// Stream serves the project's live activity feed over SSE. Authorization
// is settled before any stream headers are written, so an unauthorized
// caller gets a plain JSON error rather than a dead event stream.
func (h *ActivityHandler) Stream(c *gin.Context) {
	projectID := c.Param("id")

	userID := c.GetString(ContextUserID)
	if userID == "" {
		claims, err := h.streamTokens.Validate(c.Query("token"))
		if err != nil || claims.ProjectID != projectID {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		userID = claims.UserID
	}

	if err := h.authorize(c, projectID, userID); err != nil {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	snapshot, err := h.activities.Recent(projectID, h.feedLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	if !h.writeEvent(c.Writer, flusher, stream.NewConnectionEvent("connected")) {
		return
	}
	if !h.writeEvent(c.Writer, flusher, stream.NewInitialDataEvent(snapshot)) {
		return
	}

	conn := stream.NewConnection(uuid.New().String(), projectID, userID, h.bufferSize)
	h.registry.Register(conn)
	h.metrics.RecordStreamConnected()
	defer func() {
		h.registry.Unregister(projectID, conn.ID)
		h.metrics.RecordStreamDisconnected()
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case frame, ok := <-conn.Out():
			if !ok {
				return
			}
			if _, err := c.Writer.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if !h.writeEvent(c.Writer, flusher, stream.NewConnectionEvent("ping")) {
				return
			}
		}
	}
}

func (h *ActivityHandler) writeEvent(w io.Writer, flusher http.Flusher, event stream.Event) bool {
	frame, err := event.Encode()
	if err != nil {
		return false
	}
	if _, err := w.Write(frame); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// authorize answers whether userID may read the project's activity and
// writes the error response itself when not. Missing projects are 404 so
// private project ids are not probeable.
func (h *ActivityHandler) authorize(c *gin.Context, projectID, userID string) error {
	ok, err := h.projects.HasAccess(c.Request.Context(), projectID, userID)
	if err != nil {
		if services.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return err
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return err
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return services.ErrProjectAccessDenied
	}
	return nil
}
