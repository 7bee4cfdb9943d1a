// Package chatbot provides a Go client for the chatbot HTTP API.
//
//	client := chatbot.New("http://localhost:8080")
//	res, _ := client.Chat(ctx, "What is the refund policy?", "session-1")
//	fmt.Println(res.Answer)
package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

const defaultTimeout = 90 * time.Second

// AnswerResult is the chat response payload.
type AnswerResult = domain.AnswerResult

// Citation is a single retrieved source.
type Citation = domain.Citation

// Client is the chatbot SDK entry point.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sends a Bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a chatbot Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat sends a query and returns the answer with citations. sessionID may be
// empty. A degraded backend still returns a result: check result.Err to tell
// a fallback answer from a grounded one.
func (c *Client) Chat(ctx context.Context, query, sessionID string) (AnswerResult, error) {
	body, err := json.Marshal(map[string]string{
		"query":      query,
		"session_id": sessionID,
	})
	if err != nil {
		return AnswerResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return AnswerResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return AnswerResult{}, apiError(resp)
	}

	var res AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return AnswerResult{}, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}

// Health returns the aggregated service health status and per-component checks.
func (c *Client) Health(ctx context.Context) (string, map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil, apiError(resp)
	}

	var report struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}
	return report.Status, report.Checks, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("api error %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("api error %d", resp.StatusCode)
}
