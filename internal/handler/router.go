package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/repochat/web/internal/handler/badge"
	"github.com/repochat/web/internal/handler/live"
	"github.com/repochat/web/internal/handler/session"
	"github.com/repochat/web/internal/handler/stream"
	"github.com/repochat/web/internal/handler/web"
	"github.com/repochat/web/internal/markdown"
	middlewarePkg "github.com/repochat/web/internal/middleware"
	badgeModel "github.com/repochat/web/internal/model/badge"
	sessionService "github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/utils"
)

// Deps 汇总路由需要的服务
type Deps struct {
	Sessions    *sessionService.Service
	Badges      badgeModel.Store
	Summary     markdown.Engine
	Chat        markdown.Engine
	Cookie      middlewarePkg.CookieOptions
	CORSOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) (http.Handler, error) {
	pages, err := web.New(deps.Sessions, deps.Badges, deps.Summary, deps.Chat)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(browser chi.Router) {
		browser.Use(middlewarePkg.Session(deps.Sessions, deps.Cookie))
		pages.RegisterRoutes(browser)
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS(deps.CORSOrigins))

		badge.New(deps.Badges).RegisterRoutes(api)
		session.New(deps.Sessions).RegisterRoutes(api)
		stream.New(deps.Sessions, deps.Summary).RegisterRoutes(api)
		live.NewWebSocketHandler(deps.Sessions, deps.Chat, deps.CORSOrigins).RegisterRoutes(api)
	})

	return r, nil
}
