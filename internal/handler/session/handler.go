package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repochat/web/internal/service/gateway"
	sessionService "github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/utils"
)

// Handler 会话 JSON API 的HTTP处理器
type Handler struct {
	sessions *sessionService.Service
}

// New 创建会话处理器
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.handleGetSession)
		sr.Delete("/", h.handleResetSession)
		sr.Post("/analyze", h.handleAnalyze)
		sr.Post("/questions", h.handleAsk)
		sr.Get("/messages", h.handleMessages)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleResetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.ResetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

// handleAnalyze 提交仓库地址并返回分析后的会话快照
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RepoURL string `json:"repo_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.sessions.Analyze(r.Context(), chi.URLParam(r, "sessionID"), payload.RepoURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

// handleAsk 发送一个问题；远端失败时同时返回带错误标记的消息
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.sessions.Ask(r.Context(), chi.URLParam(r, "sessionID"), payload.Question)
	if err != nil {
		var queryErr *gateway.QueryError
		if errors.As(err, &queryErr) && msg.IsError {
			utils.RespondJSON(w, http.StatusBadGateway, map[string]any{
				"error":   queryErr.Message,
				"message": msg,
			})
			return
		}
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, msg)
}

func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.sessions.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// StatusFor 将会话层错误映射为HTTP状态码
func StatusFor(err error) int {
	var analysisErr *gateway.AnalysisError
	var queryErr *gateway.QueryError

	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessionService.ErrBlankURL), errors.Is(err, sessionService.ErrBlankInput):
		return http.StatusBadRequest
	case errors.Is(err, sessionService.ErrAnalysisInFlight),
		errors.Is(err, sessionService.ErrExchangeInFlight),
		errors.Is(err, sessionService.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, sessionService.ErrNoRepository):
		return http.StatusPreconditionFailed
	case errors.As(err, &analysisErr), errors.As(err, &queryErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	var analysisErr *gateway.AnalysisError
	if errors.As(err, &analysisErr) {
		utils.RespondError(w, http.StatusBadGateway, analysisErr.Message)
		return
	}
	utils.RespondError(w, StatusFor(err), err.Error())
}
