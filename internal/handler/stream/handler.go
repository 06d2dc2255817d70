package stream

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/model/repo"
	"github.com/repochat/web/internal/service/gateway"
	sessionService "github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/logger"
	"github.com/repochat/web/pkg/utils"
)

// Handler 以 Server-Sent Events 推送仓库分析进度
type Handler struct {
	sessions *sessionService.Service
	engine   markdown.Engine
	log      *slog.Logger
}

// New creates a new stream handler
func New(sessions *sessionService.Service, engine markdown.Engine) *Handler {
	return &Handler{
		sessions: sessions,
		engine:   engine,
		log:      logger.Component("stream"),
	}
}

// RegisterRoutes 注册SSE路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleAnalyzeStream)
}

type startEvent struct {
	SessionID string `json:"sessionId"`
	RepoURL   string `json:"repo_url"`
}

type resultEvent struct {
	SessionID   string               `json:"sessionId"`
	Repo        *repo.Data           `json:"repo"`
	Languages   []repo.LanguageCount `json:"languages"`
	SummaryHTML string               `json:"summaryHtml"`
}

type errorEvent struct {
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error"`
}

type endEvent struct {
	SessionID string `json:"sessionId"`
	Finished  bool   `json:"finished"`
}

// handleAnalyzeStream 运行一次分析：start，然后 result 或 error，最后 end
func (h *Handler) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	repoURL := strings.TrimSpace(r.URL.Query().Get("repo_url"))

	if repoURL == "" {
		utils.RespondError(w, http.StatusBadRequest, "repo_url query parameter is required")
		return
	}
	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	_ = utils.SendSSEEvent(w, flusher, "start", startEvent{SessionID: sessionID, RepoURL: repoURL})

	snap, err := h.sessions.Analyze(r.Context(), sessionID, repoURL)
	switch {
	case err == nil:
		_ = utils.SendSSEEvent(w, flusher, "result", resultEvent{
			SessionID:   sessionID,
			Repo:        snap.Repo,
			Languages:   snap.Repo.SortedLanguages(),
			SummaryHTML: string(markdown.HTML(h.engine, snap.Repo.Summary)),
		})
	case r.Context().Err() != nil:
		h.log.Info("client went away during analysis", "session", sessionID)
		return
	default:
		_ = utils.SendSSEEvent(w, flusher, "error", errorEvent{SessionID: sessionID, Error: errorMessage(err)})
	}

	_ = utils.SendSSEEvent(w, flusher, "end", endEvent{SessionID: sessionID, Finished: true})
	h.log.Debug("analysis stream completed", "session", sessionID, "repo_url", repoURL)
}

func errorMessage(err error) string {
	var analysisErr *gateway.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Message
	}
	return err.Error()
}
