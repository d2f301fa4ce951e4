package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/rosca_app/internal/middleware"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

type captureSink struct {
	captured []posthog.Capture
}

func (s *captureSink) Enqueue(m posthog.Message) error {
	if c, ok := m.(posthog.Capture); ok {
		s.captured = append(s.captured, c)
	}
	return nil
}

func (s *captureSink) Close() error { return nil }

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	return r
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, role, testSecret, time.Hour, "rosca-test")
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(middleware.AuthMiddleware(testSecret, "rosca-test"))
	r.GET("/me", func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.String(http.StatusOK, userID+"|"+middleware.GetUserRoleFromContext(c))
	})

	w := serve(r, http.MethodGet, "/me", bearer(t, "user-1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1|"+utils.RoleMember, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Token abc").Code)

	wrongIssuer, err := utils.GenerateJWT("user-1", utils.RoleMember, testSecret, time.Hour, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer "+wrongIssuer).Code)

	expired, err := utils.GenerateJWT("user-1", utils.RoleMember, testSecret, -time.Minute, "rosca-test")
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/me", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(middleware.AuthMiddleware(testSecret, "rosca-test"), middleware.RequireAdmin())
	r.GET("/ops", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/ops", bearer(t, "user-1", utils.RoleMember)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/ops", bearer(t, "ops-1", utils.RoleAdmin)).Code)
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	r := newRouter(middleware.StructuredLoggingMiddleware(slog.Default()))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotSame(t, slog.Default(), middleware.GetLoggerFromCtx(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestGetLoggerFromCtx_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), middleware.GetLoggerFromCtx(context.Background()))
}

func TestPosthogMiddleware(t *testing.T) {
	sink := &captureSink{}
	client := utils.NewPosthogClientWrapper(sink, slog.Default())
	r := newRouter(middleware.PosthogMiddleware(client), middleware.AuthMiddleware(testSecret, "rosca-test"))
	r.POST("/api/v1/groups/:groupID/contributions", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/api/v1/groups/:groupID/leave", func(c *gin.Context) { c.Status(http.StatusConflict) })

	serve(r, http.MethodPost, "/api/v1/groups/g1/contributions", bearer(t, "user-1", utils.RoleMember))
	serve(r, http.MethodPost, "/api/v1/groups/g1/leave", bearer(t, "user-1", utils.RoleMember))

	require.Len(t, sink.captured, 1)
	assert.Equal(t, "api_v1_groups_groupID_contributions", sink.captured[0].Event)
	assert.Equal(t, "user-1", sink.captured[0].DistinctId)
	assert.Equal(t, "g1", sink.captured[0].Properties["groupID"])
}

func TestRouteEventName(t *testing.T) {
	assert.Equal(t, "api_v1_admin_groups_groupID_members_userID_remove", middleware.RouteEventName("/api/v1/admin/groups/:groupID/members/:userID/remove"))
	assert.Equal(t, "", middleware.RouteEventName(""))
}
