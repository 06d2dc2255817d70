package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/middleware"
	"github.com/repochat/web/internal/model/badge"
	"github.com/repochat/web/internal/service/gateway"
	sessionService "github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler 渲染分析表单、仓库摘要和聊天记录
type Handler struct {
	sessions *sessionService.Service
	views    views
	tmpl     *template.Template
	log      *slog.Logger
}

// New 创建页面处理器
func New(sessions *sessionService.Service, badges badge.Store, summary, chat markdown.Engine) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		sessions: sessions,
		views:    views{summary: summary, chat: chat, badges: badges},
		tmpl:     tmpl,
		log:      logger.Component("web"),
	}, nil
}

// RegisterRoutes 注册页面路由，调用方需先挂载会话中间件
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/analyze", h.handleAnalyze)
	r.Post("/chat", h.handleChat)
	r.Post("/reset", h.handleReset)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	snap, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", h.views.page(snap)); err != nil {
		h.log.Error("render page failed", "session", id, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleAnalyze 提交仓库地址；失败信息由会话保存并在表单下方显示
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	_, err := h.sessions.Analyze(r.Context(), id, r.FormValue("repo_url"))
	var analysisErr *gateway.AnalysisError
	switch {
	case err == nil, errors.As(err, &analysisErr):
	case errors.Is(err, sessionService.ErrBlankURL), errors.Is(err, sessionService.ErrAnalysisInFlight):
		h.log.Debug("analyze ignored", "session", id, "reason", err)
	default:
		h.log.Warn("analyze failed", "session", id, "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleChat 提交一个问题；远端失败会以错误消息的形式出现在记录里
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	_, err := h.sessions.Ask(r.Context(), id, r.FormValue("question"))
	var queryErr *gateway.QueryError
	switch {
	case err == nil, errors.As(err, &queryErr):
	case errors.Is(err, sessionService.ErrBlankInput),
		errors.Is(err, sessionService.ErrExchangeInFlight),
		errors.Is(err, sessionService.ErrNoRepository):
		h.log.Debug("question ignored", "session", id, "reason", err)
	default:
		h.log.Warn("question failed", "session", id, "error", err)
	}

	http.Redirect(w, r, "/#chat", http.StatusSeeOther)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.SessionID(r.Context())
	if !ok {
		http.Error(w, "session required", http.StatusUnauthorized)
		return
	}

	if _, err := h.sessions.ResetSession(r.Context(), id); err != nil {
		h.log.Warn("reset failed", "session", id, "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
