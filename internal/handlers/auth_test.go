package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brandoncintron/power-projects-sub000/internal/services"
	"github.com/brandoncintron/power-projects-sub000/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	s, err := store.New("sqlite", dsn)
	require.NoError(t, err)

	handler := NewAuthHandler(services.NewUserService(s))

	r := gin.New()
	sessionStore := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("test_session", sessionStore))

	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.POST("/api/auth/logout", handler.Logout)
	r.GET("/api/auth/me", sessionUser(), handler.Me)

	return r
}

func postJSON(r *gin.Engine, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginAndMe(t *testing.T) {
	r := newAuthTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{
		"username": "octocat",
		"email": "octocat@example.com",
		"password": "correct horse battery"
	}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = postJSON(r, "/api/auth/login", `{"username": "octocat", "password": "correct horse battery"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := http.Response{Header: w.Header()}
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w2, req)

	require.Equal(t, http.StatusOK, w2.Code)
	var user map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &user))
	assert.Equal(t, "octocat", user["username"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := newAuthTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{
		"username": "octocat",
		"email": "octocat@example.com",
		"password": "correct horse battery"
	}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/auth/login", `{"username": "octocat", "password": "wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterDuplicateUsernameConflict(t *testing.T) {
	r := newAuthTestRouter(t)

	body := `{"username": "octocat", "email": "octocat@example.com", "password": "correct horse battery"}`
	w := postJSON(r, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/auth/register", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidatesInput(t *testing.T) {
	r := newAuthTestRouter(t)

	w := postJSON(r, "/api/auth/register", `{"username": "octocat"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
