package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/repochat/web/internal/config"
	"github.com/repochat/web/internal/handler"
	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/middleware"
	"github.com/repochat/web/internal/model/badge"
	"github.com/repochat/web/internal/scheduler"
	"github.com/repochat/web/internal/service/gateway"
	"github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	if envErr != nil {
		log.Debug("no .env file loaded, using system environment only", "error", envErr)
	}

	badges := badge.NewMemoryStore(badge.Seed())
	if cfg.View.BadgePaletteFile != "" {
		if err := badges.LoadFile(cfg.View.BadgePaletteFile); err != nil {
			log.Error("failed to load badge palette", "path", cfg.View.BadgePaletteFile, "error", err)
			os.Exit(1)
		}
		log.Info("badge palette loaded", "path", cfg.View.BadgePaletteFile, "entries", len(badges.List()))
	}

	gw := gateway.New(gateway.Config{BaseURL: cfg.Gateway.BaseURL, Timeout: cfg.Gateway.Timeout})
	sessions := session.NewService(gw, cfg.Session.TTL)

	janitor, err := scheduler.NewJanitor(cfg.Session.Sweep, sessions)
	if err != nil {
		log.Error("failed to create session janitor", "error", err)
		os.Exit(1)
	}

	router, err := handler.NewRouter(handler.Deps{
		Sessions: sessions,
		Badges:   badges,
		Summary:  markdown.NewEngine(cfg.View.MarkdownEngine, markdown.SummaryStyle),
		Chat:     markdown.NewEngine(cfg.View.MarkdownEngine, markdown.ChatStyle),
		Cookie: middleware.CookieOptions{
			Name:   cfg.Session.CookieName,
			MaxAge: cfg.Session.TTL,
			Secure: cfg.Session.SecureCookie,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		log.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	log.Info("starting repochat",
		"gateway", cfg.Gateway.BaseURL,
		"markdown_engine", cfg.View.MarkdownEngine,
		"session_ttl", cfg.Session.TTL,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return startServer(gctx, cfg.Server, router)
	})
	g.Go(func() error {
		return janitor.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("repochat stopped")
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("repochat web listening", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
