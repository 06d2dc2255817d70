package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repochat/web/internal/model/chat"
	"github.com/repochat/web/internal/model/repo"
	"github.com/repochat/web/internal/service/gateway"
)

type fakeGateway struct {
	analyze func(ctx context.Context, repoURL string) (*repo.Data, error)
	ask     func(ctx context.Context, repoURL, question string) (string, error)
	calls   atomic.Int32
}

func (f *fakeGateway) Analyze(ctx context.Context, repoURL string) (*repo.Data, error) {
	f.calls.Add(1)
	return f.analyze(ctx, repoURL)
}

func (f *fakeGateway) Ask(ctx context.Context, repoURL, question string) (string, error) {
	f.calls.Add(1)
	return f.ask(ctx, repoURL, question)
}

func okGateway() *fakeGateway {
	return &fakeGateway{
		analyze: func(_ context.Context, repoURL string) (*repo.Data, error) {
			return &repo.Data{Summary: "# Repo\n" + repoURL, Languages: map[string]int{"Go": 3}}, nil
		},
		ask: func(_ context.Context, _, question string) (string, error) {
			return "answer to " + question, nil
		},
	}
}

func newAnalyzedSession(t *testing.T, svc *Service) Snapshot {
	t.Helper()
	ctx := context.Background()
	snap, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	snap, err = svc.Analyze(ctx, snap.ID, "https://github.com/a/b")
	require.NoError(t, err)
	return snap
}

func TestServiceGetSession(t *testing.T) {
	svc := NewService(okGateway(), time.Hour)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, chat.Greeting, got.Messages[0].Content)
	assert.Equal(t, "idle", got.State)

	_, err = svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnalyzeBlankURLPerformsNoCall(t *testing.T) {
	gw := okGateway()
	svc := NewService(gw, time.Hour)
	snap, _ := svc.CreateSession(context.Background())

	_, err := svc.Analyze(context.Background(), snap.ID, "   ")
	assert.ErrorIs(t, err, ErrBlankURL)
	assert.Equal(t, int32(0), gw.calls.Load())
}

func TestAnalyzeSuccessReplacesDataAndRestartsTranscript(t *testing.T) {
	svc := NewService(okGateway(), time.Hour)
	ctx := context.Background()
	snap := newAnalyzedSession(t, svc)

	_, err := svc.Ask(ctx, snap.ID, "hello?")
	require.NoError(t, err)

	snap, err = svc.Analyze(ctx, snap.ID, " https://github.com/c/d ")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/c/d", snap.RepoURL)
	assert.Equal(t, "# Repo\nhttps://github.com/c/d", snap.Repo.Summary)
	assert.Len(t, snap.Messages, 1)
	assert.False(t, snap.Analyzing)
	assert.Empty(t, snap.AnalyzeError)
}

func TestAnalyzeFailureSetsBannerAndKeepsData(t *testing.T) {
	gw := okGateway()
	svc := NewService(gw, time.Hour)
	ctx := context.Background()
	snap := newAnalyzedSession(t, svc)

	gw.analyze = func(context.Context, string) (*repo.Data, error) {
		return nil, &gateway.AnalysisError{Message: "repo not found", Status: 500}
	}

	snap, err := svc.Analyze(ctx, snap.ID, "https://github.com/x/missing")
	var analysisErr *gateway.AnalysisError
	require.ErrorAs(t, err, &analysisErr)

	assert.Equal(t, "repo not found", snap.AnalyzeError)
	assert.Equal(t, "https://github.com/a/b", snap.RepoURL)
	require.NotNil(t, snap.Repo)
	assert.False(t, snap.Analyzing)
}

func TestAnalyzeRejectsConcurrentCall(t *testing.T) {
	gw := okGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.analyze = func(context.Context, string) (*repo.Data, error) {
		close(entered)
		<-release
		return &repo.Data{Summary: "s"}, nil
	}
	svc := NewService(gw, time.Hour)
	snap, _ := svc.CreateSession(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(context.Background(), snap.ID, "https://github.com/a/b")
		done <- err
	}()
	<-entered

	current, err := svc.GetSession(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.True(t, current.Analyzing)

	_, err = svc.Analyze(context.Background(), snap.ID, "https://github.com/a/b")
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestAskSuccessAddsTwoMessages(t *testing.T) {
	svc := NewService(okGateway(), time.Hour)
	snap := newAnalyzedSession(t, svc)
	before := len(snap.Messages)

	reply, err := svc.Ask(context.Background(), snap.ID, "what is it?")
	require.NoError(t, err)
	assert.Equal(t, "answer to what is it?", reply.Content)
	assert.Equal(t, chat.RoleSystem, reply.Role)

	msgs, err := svc.Transcript(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, before+2)
	assert.Equal(t, chat.RoleUser, msgs[len(msgs)-2].Role)
}

func TestAskBlankInputIsNoop(t *testing.T) {
	gw := okGateway()
	svc := NewService(gw, time.Hour)
	snap := newAnalyzedSession(t, svc)
	calls := gw.calls.Load()

	_, err := svc.Ask(context.Background(), snap.ID, " \t ")
	assert.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, calls, gw.calls.Load())

	msgs, _ := svc.Transcript(context.Background(), snap.ID)
	assert.Len(t, msgs, len(snap.Messages))
}

func TestAskWithoutRepository(t *testing.T) {
	svc := NewService(okGateway(), time.Hour)
	snap, _ := svc.CreateSession(context.Background())

	_, err := svc.Ask(context.Background(), snap.ID, "hi")
	assert.ErrorIs(t, err, ErrNoRepository)
}

func TestAskFailureAppendsFlaggedMessage(t *testing.T) {
	gw := okGateway()
	gw.ask = func(context.Context, string, string) (string, error) {
		return "", &gateway.QueryError{Message: "Failed to get response from AI", Status: 500}
	}
	svc := NewService(gw, time.Hour)
	snap := newAnalyzedSession(t, svc)

	msg, err := svc.Ask(context.Background(), snap.ID, "why?")
	var queryErr *gateway.QueryError
	require.ErrorAs(t, err, &queryErr)
	assert.True(t, msg.IsError)
	assert.Equal(t, "Error: Failed to get response from AI. Please try again.", msg.Content)

	current, _ := svc.GetSession(context.Background(), snap.ID)
	assert.False(t, current.Awaiting())
	assert.Len(t, current.Messages, 3)
}

func TestAskRejectsSecondQuestionWhileAwaiting(t *testing.T) {
	gw := okGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.ask = func(context.Context, string, string) (string, error) {
		close(entered)
		<-release
		return "done", nil
	}
	svc := NewService(gw, time.Hour)
	snap := newAnalyzedSession(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ask(context.Background(), snap.ID, "first")
		done <- err
	}()
	<-entered

	current, _ := svc.GetSession(context.Background(), snap.ID)
	assert.True(t, current.Awaiting())

	_, err := svc.Ask(context.Background(), snap.ID, "second")
	assert.ErrorIs(t, err, ErrExchangeInFlight)

	close(release)
	require.NoError(t, <-done)

	msgs, _ := svc.Transcript(context.Background(), snap.ID)
	assert.Len(t, msgs, 3)
}

func TestAskCancelledContextAbandonsExchange(t *testing.T) {
	gw := okGateway()
	gw.ask = func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", &gateway.QueryError{Message: gateway.QueryFallback, Err: ctx.Err()}
	}
	svc := NewService(gw, time.Hour)
	snap := newAnalyzedSession(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ask(ctx, snap.ID, "anyone?")
	assert.True(t, errors.Is(err, context.Canceled))

	current, _ := svc.GetSession(context.Background(), snap.ID)
	assert.False(t, current.Awaiting())
	assert.Len(t, current.Messages, 2)
	assert.False(t, current.Messages[1].IsError)
}

func TestResetDropsPendingAnswer(t *testing.T) {
	gw := okGateway()
	entered := make(chan struct{})
	release := make(chan struct{})
	gw.ask = func(context.Context, string, string) (string, error) {
		close(entered)
		<-release
		return "late", nil
	}
	svc := NewService(gw, time.Hour)
	snap := newAnalyzedSession(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ask(context.Background(), snap.ID, "slow")
		done <- err
	}()
	<-entered

	reset, err := svc.ResetSession(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Nil(t, reset.Repo)

	close(release)
	assert.ErrorIs(t, <-done, ErrSessionReset)

	msgs, _ := svc.Transcript(context.Background(), snap.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.Greeting, msgs[0].Content)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	svc := NewService(okGateway(), time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	stale, _ := svc.CreateSession(context.Background())
	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	fresh, _ := svc.CreateSession(context.Background())

	removed := svc.Sweep(base.Add(2*time.Minute + time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, svc.Len())

	_, err := svc.GetSession(context.Background(), stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.GetSession(context.Background(), fresh.ID)
	assert.NoError(t, err)
}

func TestAskNotifyReportsUserMessageBeforeAnswer(t *testing.T) {
	svc := NewService(okGateway(), time.Hour)
	snap := newAnalyzedSession(t, svc)

	var pending chat.Message
	reply, err := svc.AskNotify(context.Background(), snap.ID, "where is main?", func(m chat.Message) {
		pending = m
	})
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, pending.Role)
	assert.Equal(t, "where is main?", pending.Content)
	assert.Greater(t, reply.ID, pending.ID)
}
