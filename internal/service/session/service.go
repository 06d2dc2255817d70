package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repochat/web/internal/model/chat"
	"github.com/repochat/web/internal/model/repo"
	"github.com/repochat/web/internal/service/gateway"
	"github.com/repochat/web/pkg/logger"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrBlankURL         = errors.New("repository url is required")
	ErrAnalysisInFlight = errors.New("repository analysis already running")
	ErrNoRepository     = errors.New("no repository analyzed yet")
	ErrSessionReset     = errors.New("session was reset while the request was pending")

	ErrBlankInput       = chat.ErrBlankInput
	ErrExchangeInFlight = chat.ErrExchangeInFlight
)

// Gateway is the remote analysis service as seen by sessions.
type Gateway interface {
	Analyze(ctx context.Context, repoURL string) (*repo.Data, error)
	Ask(ctx context.Context, repoURL, question string) (string, error)
}

type session struct {
	id         string
	createdAt  time.Time
	lastSeen   time.Time
	repoURL    string
	repo       *repo.Data
	conv       *chat.Conversation
	analyzing  bool
	analyzeErr string
	// generation changes whenever the transcript is replaced; pending calls
	// started under an older generation are discarded.
	generation uint64
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID           string         `json:"id"`
	RepoURL      string         `json:"repoUrl,omitempty"`
	Repo         *repo.Data     `json:"repo,omitempty"`
	Messages     []chat.Message `json:"messages"`
	State        string         `json:"state"`
	Analyzing    bool           `json:"analyzing"`
	AnalyzeError string         `json:"analyzeError,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastSeen     time.Time      `json:"lastSeen"`
}

// Awaiting reports whether a chat answer is pending.
func (s Snapshot) Awaiting() bool {
	return s.State == chat.StateAwaitingResponse.String()
}

// Service owns browser sessions and drives the analyze and chat flows.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*session
	gateway  Gateway
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewService creates a session service. Sessions idle for longer than ttl
// are removed by Sweep.
func NewService(gw Gateway, ttl time.Duration) *Service {
	return &Service{
		sessions: make(map[string]*session),
		gateway:  gw,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component("session"),
	}
}

// CreateSession starts a session with an empty repository and a fresh
// transcript.
func (s *Service) CreateSession(_ context.Context) (Snapshot, error) {
	now := s.now()
	sess := &session{
		id:        uuid.NewString(),
		createdAt: now,
		lastSeen:  now,
		conv:      chat.NewConversation(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	snap := sess.snapshot()
	s.mu.Unlock()

	s.log.Debug("session created", "session", sess.id)
	return snap, nil
}

// GetSession retrieves a session by identifier and marks it as seen.
func (s *Service) GetSession(_ context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	return sess.snapshot(), nil
}

// ResetSession discards the repository, the transcript and any banner.
// Calls still pending for the old state are dropped when they return.
func (s *Service) ResetSession(_ context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	sess.repo = nil
	sess.repoURL = ""
	sess.analyzeErr = ""
	sess.analyzing = false
	sess.conv = chat.NewConversation()
	sess.generation++
	sess.lastSeen = s.now()
	return sess.snapshot(), nil
}

// Analyze submits repoURL to the gateway. A success replaces the repository
// data wholesale and restarts the transcript; a failure sets the banner
// message and keeps whatever was shown before.
func (s *Service) Analyze(ctx context.Context, sessionID, repoURL string) (Snapshot, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return Snapshot{}, ErrBlankURL
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionNotFound
	}
	if sess.analyzing {
		s.mu.Unlock()
		return Snapshot{}, ErrAnalysisInFlight
	}
	sess.analyzing = true
	sess.analyzeErr = ""
	sess.lastSeen = s.now()
	gen := sess.generation
	s.mu.Unlock()

	data, err := s.gateway.Analyze(ctx, repoURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok = s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	if sess.generation != gen {
		return sess.snapshot(), ErrSessionReset
	}
	sess.analyzing = false
	sess.lastSeen = s.now()

	if err != nil {
		if ctx.Err() != nil {
			s.log.Info("analyze abandoned", "session", sessionID, "repo_url", repoURL)
			return sess.snapshot(), err
		}
		sess.analyzeErr = userMessage(err)
		return sess.snapshot(), err
	}

	sess.repo = data
	sess.repoURL = repoURL
	sess.conv = chat.NewConversation()
	sess.generation++
	s.log.Info("repository loaded", "session", sessionID, "repo_url", repoURL)
	return sess.snapshot(), nil
}

// Ask runs one chat exchange about the analyzed repository. On a gateway
// failure the flagged transcript entry is returned together with the error.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (chat.Message, error) {
	return s.AskNotify(ctx, sessionID, question, nil)
}

// AskNotify is Ask with a callback invoked with the accepted user message
// before the gateway is called.
func (s *Service) AskNotify(ctx context.Context, sessionID, question string, submitted func(chat.Message)) (chat.Message, error) {
	if strings.TrimSpace(question) == "" {
		return chat.Message{}, ErrBlankInput
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return chat.Message{}, ErrSessionNotFound
	}
	if sess.repo == nil {
		s.mu.Unlock()
		return chat.Message{}, ErrNoRepository
	}
	userMsg, err := sess.conv.Submit(question)
	if err != nil {
		s.mu.Unlock()
		return chat.Message{}, err
	}
	sess.lastSeen = s.now()
	gen := sess.generation
	repoURL := sess.repoURL
	s.mu.Unlock()

	if submitted != nil {
		submitted(userMsg)
	}

	answer, err := s.gateway.Ask(ctx, repoURL, question)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok = s.sessions[sessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}
	if sess.generation != gen {
		return chat.Message{}, ErrSessionReset
	}
	sess.lastSeen = s.now()

	if err != nil {
		if ctx.Err() != nil {
			sess.conv.Abandon()
			s.log.Info("exchange abandoned", "session", sessionID)
			return chat.Message{}, err
		}
		msg, failErr := sess.conv.Fail(userMessage(err))
		if failErr != nil {
			return chat.Message{}, failErr
		}
		return msg, err
	}

	return sess.conv.Resolve(answer)
}

// Transcript returns the session messages, oldest first.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.conv.Messages(), nil
}

// Sweep removes sessions idle for longer than the configured TTL and
// returns how many were removed.
func (s *Service) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Info("expired sessions removed", "count", removed, "remaining", len(s.sessions))
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (sess *session) snapshot() Snapshot {
	return Snapshot{
		ID:           sess.id,
		RepoURL:      sess.repoURL,
		Repo:         sess.repo.Clone(),
		Messages:     sess.conv.Messages(),
		State:        sess.conv.State().String(),
		Analyzing:    sess.analyzing,
		AnalyzeError: sess.analyzeErr,
		CreatedAt:    sess.createdAt,
		LastSeen:     sess.lastSeen,
	}
}

// userMessage extracts the text shown to the user for a failed call.
func userMessage(err error) string {
	var analysisErr *gateway.AnalysisError
	if errors.As(err, &analysisErr) {
		return analysisErr.Message
	}
	var queryErr *gateway.QueryError
	if errors.As(err, &queryErr) {
		return queryErr.Message
	}
	return err.Error()
}
