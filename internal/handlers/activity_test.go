package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
	"github.com/brandoncintron/power-projects-sub000/internal/stream"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type activityTestEnv struct {
	router       *gin.Engine
	store        *store.Store
	registry     *stream.Registry
	activities   *services.ActivityService
	projects     *services.ProjectService
	streamTokens *services.StreamTokenService
}

func newActivityTestEnv(t *testing.T) *activityTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	s, err := store.New("sqlite", dsn)
	require.NoError(t, err)

	registry := stream.NewRegistry(0)
	t.Cleanup(registry.CloseAll)

	activities := services.NewActivityService(s, registry, nil)
	projects := services.NewProjectService(s, nil, time.Minute)
	streamTokens := services.NewStreamTokenService("test-secret", time.Minute)

	handler := NewActivityHandler(activities, projects, streamTokens, registry, nil, ActivityHandlerConfig{
		FeedLimit:         50,
		StreamBufferSize:  16,
		HeartbeatInterval: time.Hour,
	})

	r := gin.New()
	sessionStore := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test_session", sessionStore))

	// Test helper to establish a session without the full auth flow.
	r.POST("/test-login/:userID", func(c *gin.Context) {
		sess := sessions.Default(c)
		sess.Set(SessionUserID, c.Param("userID"))
		if err := sess.Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/api/projects/:id/activity", sessionUser(), handler.List)
	r.POST("/api/projects/:id/activity/token", sessionUser(), handler.MintStreamToken)
	r.GET("/projects/:id/activity/stream", sessionUser(), handler.Stream)

	return &activityTestEnv{
		router:       r,
		store:        s,
		registry:     registry,
		activities:   activities,
		projects:     projects,
		streamTokens: streamTokens,
	}
}

// sessionUser mirrors the optional-auth middleware without importing it
func sessionUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if userID := sess.Get(SessionUserID); userID != nil {
			c.Set(ContextUserID, userID)
		}
		c.Next()
	}
}

func (env *activityTestEnv) seedProjectWithOwner(t *testing.T) (*models.User, *models.Project) {
	t.Helper()

	owner := &models.User{
		ID:           uuid.New().String(),
		Username:     "owner-" + uuid.New().String()[:8],
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, env.store.CreateUser(owner))

	project := &models.Project{
		ID:         uuid.New().String(),
		OwnerID:    owner.ID,
		Name:       "stream test",
		Visibility: models.VisibilityPublic,
	}
	require.NoError(t, env.store.CreateProject(project))
	return owner, project
}

func (env *activityTestEnv) login(t *testing.T, userID string) []*http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test-login/"+userID, nil)
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	resp := http.Response{Header: w.Header()}
	return resp.Cookies()
}

func TestStreamRejectsAnonymous(t *testing.T) {
	env := newActivityTestEnv(t)
	_, project := env.seedProjectWithOwner(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+project.ID+"/activity/stream", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/event-stream")
}

func TestStreamRejectsNonMemberBeforeUpgrade(t *testing.T) {
	env := newActivityTestEnv(t)
	_, project := env.seedProjectWithOwner(t)

	outsider := &models.User{
		ID:           uuid.New().String(),
		Username:     "outsider",
		Email:        "outsider@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, env.store.CreateUser(outsider))
	cookies := env.login(t, outsider.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+project.ID+"/activity/stream", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Header().Get("Content-Type"), "text/event-stream")
}

func TestStreamUnknownProjectIs404(t *testing.T) {
	env := newActivityTestEnv(t)
	owner, _ := env.seedProjectWithOwner(t)
	cookies := env.login(t, owner.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+uuid.New().String()+"/activity/stream", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamRejectsTokenForOtherProject(t *testing.T) {
	env := newActivityTestEnv(t)
	owner, project := env.seedProjectWithOwner(t)
	_, other := env.seedProjectWithOwner(t)

	token, _, err := env.streamTokens.Generate(owner.ID, other.ID)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/projects/"+project.ID+"/activity/stream?token="+token, nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func readEvent(t *testing.T, reader *bufio.Reader) stream.Event {
	t.Helper()

	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "))

		var event stream.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		return event
	}
}

func TestStreamSnapshotThenLiveEvents(t *testing.T) {
	env := newActivityTestEnv(t)
	owner, project := env.seedProjectWithOwner(t)

	_, err := env.activities.Record(services.ActivityInput{
		ProjectID:     project.ID,
		GithubEventID: "seed-1",
		EventType:     models.EventPush,
		Summary:       "seeded before connect",
	})
	require.NoError(t, err)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	token, _, err := env.streamTokens.Generate(owner.ID, project.ID)
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/projects/" + project.ID + "/activity/stream?token=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)

	connected := readEvent(t, reader)
	assert.Equal(t, stream.EventTypeConnection, connected.Type)

	snapshot := readEvent(t, reader)
	require.Equal(t, stream.EventTypeInitialData, snapshot.Type)
	require.Len(t, snapshot.Activities, 1)
	assert.Equal(t, "seed-1", snapshot.Activities[0].GithubEventID)

	// Wait for the connection to land in the registry before broadcasting.
	deadline := time.Now().Add(3 * time.Second)
	for env.registry.Count(project.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, err = env.activities.Record(services.ActivityInput{
		ProjectID:     project.ID,
		GithubEventID: "live-1",
		EventType:     models.EventIssue,
		Summary:       "recorded while connected",
	})
	require.NoError(t, err)

	live := readEvent(t, reader)
	require.Equal(t, stream.EventTypeNewActivity, live.Type)
	require.NotNil(t, live.Activity)
	assert.Equal(t, "live-1", live.Activity.GithubEventID)
}

func TestMintStreamTokenRequiresMembership(t *testing.T) {
	env := newActivityTestEnv(t)
	owner, project := env.seedProjectWithOwner(t)
	cookies := env.login(t, owner.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/projects/"+project.ID+"/activity/token", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	claims, err := env.streamTokens.Validate(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, project.ID, claims.ProjectID)
	assert.Equal(t, owner.ID, claims.UserID)
}

func TestListActivityPaginates(t *testing.T) {
	env := newActivityTestEnv(t)
	owner, project := env.seedProjectWithOwner(t)
	cookies := env.login(t, owner.ID)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		_, err := env.activities.Record(services.ActivityInput{
			ProjectID:     project.ID,
			GithubEventID: fmt.Sprintf("e-%d", i),
			EventType:     models.EventPush,
			Summary:       "event",
			Timestamp:     base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+project.ID+"/activity?page=2&page_size=10", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Activities []models.Activity      `json:"activities"`
		Pagination store.PaginationResult `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Activities, 10)
	assert.Equal(t, int64(25), body.Pagination.Total)
	assert.Equal(t, 2, body.Pagination.CurrentPage)
	assert.True(t, body.Pagination.HasPrev)
	assert.True(t, body.Pagination.HasNext)
	// Newest first: page 2 starts at the 11th newest record.
	assert.Equal(t, "e-14", body.Activities[0].GithubEventID)
}
