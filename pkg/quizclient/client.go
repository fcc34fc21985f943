// Package quizclient talks to the quiz API the way the browser app does:
// session cookies in a jar, one shared refresh for concurrent callers, and a
// fixed retry budget for transient failures.
package quizclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prperemyshlev/mbti-quiz/internal/dto"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = 5 * time.Second

	// maxRefreshFailures consecutive failed refreshes stop automatic refresh
	maxRefreshFailures = 2
	refreshKey         = "refresh"
)

// Client is safe for concurrent use
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger

	refreshGroup singleflight.Group

	mu              sync.Mutex
	refreshFailures int
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. A cookie jar is added when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets how many extra attempts a failed fetch gets and the pause between them
func WithRetry(retries int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.retryDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("quizclient: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("quizclient: failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// Register creates an account and stores the session cookies
func (c *Client) Register(ctx context.Context, email, password, nickname string) (*dto.UserInfo, error) {
	var resp dto.AuthResponse
	err := c.send(ctx, http.MethodPost, "/auth/register", dto.RegisterRequest{
		Email:    email,
		Password: password,
		Nickname: nickname,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.resetRefreshFailures()
	return resp.User, nil
}

// Login signs in and stores the session cookies
func (c *Client) Login(ctx context.Context, email, password string) (*dto.UserInfo, error) {
	var resp dto.AuthResponse
	err := c.send(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.resetRefreshFailures()
	return resp.User, nil
}

// Logout clears the session on the server and in the jar
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the signed-in user, or nil when there is none
func (c *Client) Me(ctx context.Context) (*dto.UserInfo, error) {
	var resp dto.MeResponse
	if err := c.fetch(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Profile calls the protected profile endpoint, refreshing the session if needed
func (c *Client) Profile(ctx context.Context) (*dto.UserInfo, error) {
	var resp dto.MeResponse
	if err := c.fetch(ctx, http.MethodGet, "/api/protected/profile", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Questions returns the questionnaire
func (c *Client) Questions(ctx context.Context) ([]mbti.Question, error) {
	var resp dto.QuestionsResponse
	if err := c.fetch(ctx, http.MethodGet, "/questions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// Score asks the server to score a full answer sheet
func (c *Client) Score(ctx context.Context, answers []mbti.Answer) (*dto.ScoreResponse, error) {
	var resp dto.ScoreResponse
	if err := c.fetch(ctx, http.MethodPost, "/results/score", dto.ScoreRequest{Answers: answers}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit records a result. It is not retried, so a lost response never
// counts the same test twice.
func (c *Client) Submit(ctx context.Context, t mbti.Type, answers []mbti.Answer) (int64, error) {
	var resp dto.SubmitResultResponse
	err := c.send(ctx, http.MethodPost, "/results/submit", dto.SubmitResultRequest{
		MBTIType: string(t),
		Answers:  answers,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.TotalTests, nil
}

// Statistics returns per-type counts
func (c *Client) Statistics(ctx context.Context) (*dto.StatisticsResponse, error) {
	var resp dto.StatisticsResponse
	if err := c.fetch(ctx, http.MethodGet, "/results/statistics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates the session cookies. Concurrent callers share one request
// and its outcome. The shared request is not cancelled when one caller's
// context is. After two failures in a row it returns ErrReauthenticate
// without calling the server.
func (c *Client) Refresh(ctx context.Context) error {
	if c.refreshBlocked() {
		return ErrReauthenticate
	}

	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		err := c.send(context.WithoutCancel(ctx), http.MethodPost, "/auth/refresh", nil, nil)
		c.recordRefresh(err)
		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Client) refreshBlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshFailures >= maxRefreshFailures
}

func (c *Client) recordRefresh(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.refreshFailures++
		c.logger.Warn("session refresh failed", zap.Int("consecutive_failures", c.refreshFailures), zap.Error(err))
		return
	}
	c.refreshFailures = 0
}

func (c *Client) resetRefreshFailures() {
	c.mu.Lock()
	c.refreshFailures = 0
	c.mu.Unlock()
}

// fetch sends a request with retries. A 401 is answered with one refresh and
// one more round, never with the retry loop.
func (c *Client) fetch(ctx context.Context, method, path string, in, out any) error {
	err := c.sendWithRetry(ctx, method, path, in, out)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		if errors.Is(refreshErr, ErrReauthenticate) {
			return refreshErr
		}
		return fmt.Errorf("%w: %w", ErrUnauthorized, refreshErr)
	}

	return c.sendWithRetry(ctx, method, path, in, out)
}

func (c *Client) sendWithRetry(ctx context.Context, method, path string, in, out any) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying request",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		err = c.send(ctx, method, path, in, out)
		if !retryable(ctx, err) {
			return err
		}
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.retryable()
	}
	// http.Client.Do reports transport failures as *url.Error
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("quizclient: failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("quizclient: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("quizclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody dto.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			apiErr.Message = errBody.Message
			if apiErr.Message == "" {
				apiErr.Message = errBody.Error
			}
			apiErr.Code = errBody.Code
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("quizclient: failed to decode response: %w", err)
	}
	return nil
}
