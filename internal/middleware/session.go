package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/repochat/web/internal/service/session"
)

type sessionKey struct{}

// SessionStore 提供 cookie 会话所需的最小接口。
type SessionStore interface {
	CreateSession(ctx context.Context) (session.Snapshot, error)
	GetSession(ctx context.Context, sessionID string) (session.Snapshot, error)
}

// CookieOptions 描述会话 cookie。
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Session 确保每个浏览器请求都绑定一个会话。已知会话的 cookie 每次请求都会续期；
// 缺失或过期的 cookie 只在 GET/HEAD 请求上换发新会话，其余请求被重定向到首页。
func Session(store SessionStore, opts CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if c, err := r.Cookie(opts.Name); err == nil && c.Value != "" {
				if _, err := store.GetSession(ctx, c.Value); err == nil {
					setSessionCookie(w, opts, c.Value)
					next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, c.Value)))
					return
				}
			}

			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			snap, err := store.CreateSession(ctx)
			if err != nil {
				slog.Error("failed to create session", "component", "middleware", "error", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}

			setSessionCookie(w, opts, snap.ID)
			next.ServeHTTP(w, r.WithContext(WithSessionID(ctx, snap.ID)))
		})
	}
}

// setSessionCookie 写入会话 cookie，MaxAge 从本次请求起算，与会话的空闲过期一致。
func setSessionCookie(w http.ResponseWriter, opts CookieOptions, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// WithSessionID 将会话 ID 写入 context。
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID 读取当前请求绑定的会话 ID。
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}
