package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/model/repo"
	"github.com/repochat/web/internal/service/gateway"
	sessionService "github.com/repochat/web/internal/service/session"
)

type stubGateway struct{}

func (stubGateway) Analyze(_ context.Context, repoURL string) (*repo.Data, error) {
	if strings.HasSuffix(repoURL, "/missing") {
		return nil, &gateway.AnalysisError{Message: "repo not found", Status: http.StatusNotFound}
	}
	return &repo.Data{Summary: "# Demo", Languages: map[string]int{"Go": 2, "CSS": 5}}, nil
}

func (stubGateway) Ask(context.Context, string, string) (string, error) {
	return "", nil
}

func setup(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	svc := sessionService.NewService(stubGateway{}, time.Hour)
	snap, _ := svc.CreateSession(context.Background())

	r := chi.NewRouter()
	New(svc, markdown.New(markdown.SummaryStyle)).RegisterRoutes(r)
	return r, snap.ID
}

func events(body string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			out = append(out, name)
		}
	}
	return out
}

func TestAnalyzeStreamSuccess(t *testing.T) {
	r, id := setup(t)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+id+"?repo_url=https://github.com/a/b", nil))

	got := strings.Join(events(resp.Body.String()), ",")
	if got != "start,result,end" {
		t.Fatalf("unexpected events %q", got)
	}
	if !strings.Contains(resp.Body.String(), `"languages":[{"name":"CSS","count":5},{"name":"Go","count":2}]`) {
		t.Fatalf("expected sorted languages in %s", resp.Body.String())
	}
}

func TestAnalyzeStreamFailure(t *testing.T) {
	r, id := setup(t)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+id+"?repo_url=https://github.com/a/missing", nil))

	got := strings.Join(events(resp.Body.String()), ",")
	if got != "start,error,end" {
		t.Fatalf("unexpected events %q", got)
	}
	if !strings.Contains(resp.Body.String(), `"error":"repo not found"`) {
		t.Fatalf("expected server message in %s", resp.Body.String())
	}
}

func TestAnalyzeStreamValidation(t *testing.T) {
	r, id := setup(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/"+id, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/stream/unknown?repo_url=x", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
