package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultGatewayBaseURL = "https://harivs.pythonanywhere.com"

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Gateway GatewayConfig
	Session SessionConfig
	View    ViewConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	gateway, err := loadGatewayConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	view, err := loadViewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Gateway: gateway,
		Session: session,
		View:    view,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(os.Getenv("CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// GatewayConfig 描述远端分析服务。
type GatewayConfig struct {
	BaseURL string
	// Timeout 为 0 时不限制单次调用时长。
	Timeout time.Duration
}

func loadGatewayConfig() (GatewayConfig, error) {
	base := strings.TrimRight(getEnvOrDefault("GATEWAY_BASE_URL", defaultGatewayBaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return GatewayConfig{}, fmt.Errorf("invalid GATEWAY_BASE_URL value: %q", base)
	}

	timeout, err := parseDurationEnv("GATEWAY_TIMEOUT", 0)
	if err != nil {
		return GatewayConfig{}, err
	}
	if timeout < 0 {
		return GatewayConfig{}, fmt.Errorf("invalid GATEWAY_TIMEOUT value: %s", timeout)
	}

	return GatewayConfig{BaseURL: base, Timeout: timeout}, nil
}

// SessionConfig 描述浏览器会话的生命周期。
type SessionConfig struct {
	TTL          time.Duration
	Sweep        string
	CookieName   string
	SecureCookie bool
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}
	if ttl <= 0 {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_TTL value: %s", ttl)
	}

	secure, err := parseBoolEnv("SESSION_COOKIE_SECURE", false)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		TTL:          ttl,
		Sweep:        getEnvOrDefault("SESSION_SWEEP", "@every 5m"),
		CookieName:   getEnvOrDefault("SESSION_COOKIE", "repochat_session"),
		SecureCookie: secure,
	}, nil
}

// ViewConfig 描述页面渲染相关配置。
type ViewConfig struct {
	BadgePaletteFile string
	MarkdownEngine   string
}

func loadViewConfig() (ViewConfig, error) {
	engine := strings.ToLower(getEnvOrDefault("MARKDOWN_ENGINE", "pipeline"))
	switch engine {
	case "pipeline", "commonmark":
	default:
		return ViewConfig{}, fmt.Errorf("invalid MARKDOWN_ENGINE value: %q", engine)
	}

	return ViewConfig{
		BadgePaletteFile: strings.TrimSpace(os.Getenv("BADGE_PALETTE_FILE")),
		MarkdownEngine:   engine,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// 纯数字按秒处理。
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
