// internal/apiclient/client.go
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// Client talks to a running game server. It backs the smoke-check binary
// and is usable by any other Go consumer of the API.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
}

type Option func(*Client)

// WithTimeout bounds each request when the context carries no sooner
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

// WithMaxConnsPerHost caps parallel connections to the server.
func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 16,
		},
		defaultTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Positions fetches the full catalog.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var out []Position
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/positions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PositionsByCount fetches the positions with exactly pieceCount pieces.
func (c *Client) PositionsByCount(ctx context.Context, pieceCount int) ([]Position, error) {
	var out []Position
	path := "/api/positions/count/" + strconv.Itoa(pieceCount)
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartGame begins a round with the given piece count.
func (c *Client) StartGame(ctx context.Context, pieceCount int) (*GameStart, error) {
	req := map[string]int{"piece_count": pieceCount}
	var out GameStart
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/start", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAnswer scores userFEN against the session's position.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID int64, userFEN string) (*GameResult, error) {
	req := map[string]any{"session_id": sessionID, "user_fen": userFEN}
	var out GameResult
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/game/submit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sessions fetches recent sessions, newest first.
func (c *Client) Sessions(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats fetches accuracy aggregates.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("api error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// computeDeadline prefers a context deadline when it is sooner than the
// client's own timeout.
func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
