package badge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repochat/web/internal/model/badge"
	"github.com/repochat/web/pkg/utils"
)

// Handler 语言徽章配色的HTTP处理器
type Handler struct {
	badges badge.Store
}

// New 创建徽章处理器
func New(badges badge.Store) *Handler {
	return &Handler{badges: badges}
}

// RegisterRoutes 注册徽章相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/badges", h.handleListBadges)
}

// handleListBadges 列出所有已配置的语言徽章
func (h *Handler) handleListBadges(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"badges":  h.badges.List(),
		"default": h.badges.Default(),
	})
}
