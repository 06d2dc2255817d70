package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/repochat/web/internal/model/repo"
	"github.com/repochat/web/pkg/logger"
)

// Config describes the remote analysis service.
type Config struct {
	BaseURL string
	// Timeout bounds each call; zero leaves calls unbounded.
	Timeout time.Duration
}

// Client talks to the analysis service over its JSON API. Every call is a
// single request with no retry.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

// New creates a Client for cfg.
func New(cfg Config) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	return &Client{
		http: rc,
		log:  logger.Component("gateway"),
	}
}

type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

type analyzeResponse struct {
	Message string     `json:"message"`
	Data    *repo.Data `json:"data"`
}

type queryRequest struct {
	RepoURL  string `json:"repo_url"`
	Question string `json:"question"`
}

type queryResponse struct {
	Answer *string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Analyze submits a repository URL and returns the analysis data.
func (c *Client) Analyze(ctx context.Context, repoURL string) (*repo.Data, error) {
	var (
		ok   analyzeResponse
		fail errorResponse
	)

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(analyzeRequest{RepoURL: repoURL}).
		SetResult(&ok).
		SetError(&fail).
		ForceContentType("application/json").
		Post("/api/analyze")
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.log.Warn("analyze request failed", "repo_url", repoURL, "error", err)
		return nil, &AnalysisError{Message: AnalyzeFallback, Status: status, Err: err}
	}

	if !resp.IsSuccess() {
		msg := messageOr(fail.Error, AnalyzeFallback)
		c.log.Warn("analyze rejected", "repo_url", repoURL, "status", resp.StatusCode(), "error", msg)
		return nil, &AnalysisError{
			Message: msg,
			Status:  resp.StatusCode(),
			Err:     fmt.Errorf("analyze: unexpected status %d", resp.StatusCode()),
		}
	}

	if ok.Data == nil {
		return nil, &AnalysisError{
			Message: AnalyzeFallback,
			Status:  resp.StatusCode(),
			Err:     errors.New("analyze: response has no data field"),
		}
	}

	data := ok.Data
	data.Message = ok.Message
	c.log.Info("repository analyzed", "repo_url", repoURL, "languages", len(data.Languages), "elapsed", time.Since(start))
	return data, nil
}

// Ask sends a question about a previously analyzed repository.
func (c *Client) Ask(ctx context.Context, repoURL, question string) (string, error) {
	var (
		ok   queryResponse
		fail errorResponse
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(queryRequest{RepoURL: repoURL, Question: question}).
		SetResult(&ok).
		SetError(&fail).
		ForceContentType("application/json").
		Post("/api/query")
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.log.Warn("query request failed", "repo_url", repoURL, "error", err)
		return "", &QueryError{Message: QueryFallback, Status: status, Err: err}
	}

	if !resp.IsSuccess() {
		msg := messageOr(fail.Error, QueryFallback)
		c.log.Warn("query rejected", "repo_url", repoURL, "status", resp.StatusCode(), "error", msg)
		return "", &QueryError{
			Message: msg,
			Status:  resp.StatusCode(),
			Err:     fmt.Errorf("query: unexpected status %d", resp.StatusCode()),
		}
	}

	if ok.Answer == nil {
		return "", &QueryError{
			Message: QueryFallback,
			Status:  resp.StatusCode(),
			Err:     errors.New("query: response has no answer field"),
		}
	}

	c.log.Debug("question answered", "repo_url", repoURL, "length", len(*ok.Answer))
	return *ok.Answer, nil
}
