package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// originSet 保存允许跨域访问的来源；"*" 表示任意来源。
type originSet struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginSet(origins []string) originSet {
	set := originSet{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			set.any = true
		}
		set.allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return set
}

func (s originSet) contains(origin string) bool {
	if s.any {
		return true
	}
	_, ok := s.allowed[origin]
	return ok
}

// CORS 允许配置的来源跨域访问 JSON API。
func CORS(origins []string) func(http.Handler) http.Handler {
	set := newOriginSet(origins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && set.contains(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckOrigin 返回 WebSocket 升级使用的来源校验：同源请求、没有 Origin 头的
// 非浏览器客户端以及配置中的来源被放行。
func CheckOrigin(origins []string) func(r *http.Request) bool {
	set := newOriginSet(origins)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set.contains(origin)
	}
}
