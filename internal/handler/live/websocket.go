package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/repochat/web/internal/markdown"
	"github.com/repochat/web/internal/middleware"
	"github.com/repochat/web/internal/model/chat"
	sessionService "github.com/repochat/web/internal/service/session"
	"github.com/repochat/web/pkg/logger"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 通过 WebSocket 推送聊天回复
type WebSocketHandler struct {
	sessions *sessionService.Service
	engine   markdown.Engine
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
// origins 为允许的跨域来源，同源连接始终放行。
func NewWebSocketHandler(sessions *sessionService.Service, engine markdown.Engine, origins []string) *WebSocketHandler {
	return &WebSocketHandler{
		sessions: sessions,
		engine:   engine,
		upgrader: websocket.Upgrader{
			CheckOrigin:     middleware.CheckOrigin(origins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.Component("websocket"),
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type questionData struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// renderedMessage 是附带渲染结果的转录消息
type renderedMessage struct {
	chat.Message
	HTML string `json:"html"`
}

// conn 串行化对底层连接的写入；gorilla 连接只允许一个并发写者。
type conn struct {
	ws        *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *conn) send(msgType string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	snap, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, sessionID: sessionID}
	h.log.Info("connection opened", "session", sessionID)

	// 断开连接时取消未完成的提问，对应的交换会被放弃。
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	_ = c.send("connected", map[string]any{
		"state":   snap.State,
		"repoUrl": snap.RepoURL,
	})

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("read error", "session", sessionID, "error", err)
			}
			cancel()
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "question":
			var q questionData
			if err := json.Unmarshal(msg.Data, &q); err != nil {
				_ = c.send("error", map[string]string{"message": "invalid question payload"})
				continue
			}
			if strings.TrimSpace(q.Text) == "" {
				_ = c.send("error", map[string]string{"message": sessionService.ErrBlankInput.Error()})
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				h.answer(ctx, c, q.Text)
			}()
		default:
			_ = c.send("error", map[string]string{"message": "unsupported message type"})
		}
	}
}

// answer 执行一次问答并把结果推送给客户端
func (h *WebSocketHandler) answer(ctx context.Context, c *conn, question string) {
	msg, err := h.sessions.AskNotify(ctx, c.sessionID, question, func(pending chat.Message) {
		_ = c.send("pending", h.render(pending))
	})
	if err != nil && !msg.IsError {
		if ctx.Err() != nil {
			return
		}
		_ = c.send("error", map[string]string{"message": err.Error()})
		return
	}

	if err := c.send("message", h.render(msg)); err != nil {
		h.log.Warn("write message failed", "session", c.sessionID, "error", err)
	}
}

func (h *WebSocketHandler) render(msg chat.Message) renderedMessage {
	return renderedMessage{
		Message: msg,
		HTML:    string(markdown.HTML(h.engine, msg.Content)),
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
