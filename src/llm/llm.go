// Package llm is the translation provider: one Gemini generateContent call
// per request.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	Model           = "gemini-2.5-flash"
	// Account is the secret store account holding the API key.
	Account         = "GeminiAPIKey"

	instruction    = "Translate the following text from English or Hebrew to Russian. Return only the translation.\n\n"
	temperature    = 0.2
	defaultTimeout = 60 * time.Second
)

var ErrMissingAPIKey = errors.New("gemini API key not found")

// HTTPError is a non-2xx reply. Message is the provider's error.message when
// the body carried one, else "API error: " and the raw body.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string { return e.Message }

// TransportError wraps a failure to reach the provider or read its reply.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// KeySource returns the API key for account.
type KeySource interface {
	Load(account string) (string, bool)
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
	// Keys is consulted first; FallbackKey is used when it has nothing.
	Keys        KeySource
	FallbackKey string
	HTTPClient  *http.Client
}

type Client struct {
	endpoint string
	keys     KeySource
	fallback string
	http     *http.Client
}

func New(cfg Config) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, keys: cfg.Keys, fallback: cfg.FallbackKey, http: hc}
}

// Gemini API structures
type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type Candidate struct {
	Content Content `json:"content"`
}

type GenerateResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// APIKey resolves the key, or returns ErrMissingAPIKey.
func (c *Client) APIKey() (string, error) {
	if c.keys != nil {
		if k, ok := c.keys.Load(Account); ok && strings.TrimSpace(k) != "" {
			return strings.TrimSpace(k), nil
		}
	}
	if k := strings.TrimSpace(c.fallback); k != "" {
		return k, nil
	}
	return "", ErrMissingAPIKey
}

// Translate sends text to the model and returns the trimmed first candidate.
// A 2xx reply without text yields "" and no error.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	key, err := c.APIKey()
	if err != nil {
		return "", err
	}
	request := GenerateRequest{
		Contents:         []Content{{Parts: []Part{{Text: instruction + text}}}},
		GenerationConfig: GenerationConfig{Temperature: temperature},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, Model)
	resp, err := c.do(ctx, http.MethodPost, url, key, body)
	if err != nil {
		return "", err
	}

	var parsed GenerateResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		slog.Warn("llm: undecodable response", "err", err, "bytes", len(resp))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// Ping fetches the model metadata to validate the key and endpoint.
func (c *Client) Ping(ctx context.Context) error {
	key, err := c.APIKey()
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodGet, fmt.Sprintf("%s/models/%s", c.endpoint, Model), key, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, url, key string, body []byte) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	slog.Debug("llm: response", "method", method, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func errorMessage(body []byte) string {
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return "API error: " + string(body)
}
