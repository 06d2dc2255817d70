package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repochat/web/internal/markdown"
	middlewarePkg "github.com/repochat/web/internal/middleware"
	"github.com/repochat/web/internal/model/badge"
	"github.com/repochat/web/internal/model/repo"
	sessionService "github.com/repochat/web/internal/service/session"
)

type nopGateway struct{}

func (nopGateway) Analyze(context.Context, string) (*repo.Data, error) { return &repo.Data{}, nil }

func (nopGateway) Ask(context.Context, string, string) (string, error) { return "", nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h, err := NewRouter(Deps{
		Sessions:    sessionService.NewService(nopGateway{}, time.Hour),
		Badges:      badge.NewMemoryStore(badge.Seed()),
		Summary:     markdown.New(markdown.SummaryStyle),
		Chat:        markdown.New(markdown.ChatStyle),
		Cookie:      middlewarePkg.CookieOptions{Name: "repochat_session", MaxAge: time.Hour},
		CORSOrigins: []string{"*"},
	})
	require.NoError(t, err)
	return h
}

func TestHealthz(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestIndexIssuesSessionCookie(t *testing.T) {
	resp := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, resp.Result().Cookies(), 1)
	assert.Equal(t, "repochat_session", resp.Result().Cookies()[0].Name)
}

func TestAPIDoesNotIssueCookies(t *testing.T) {
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/badges", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	newTestRouter(t).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, resp.Result().Cookies())
	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))
}
