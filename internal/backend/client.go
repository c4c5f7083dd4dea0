package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/grocery-scan/internal/resilience"
)

// TokenProvider supplies the bearer token attached to authenticated requests.
// An empty string means no Authorization header is sent.
type TokenProvider interface {
	AccessToken() string
}

// Envelope is the common response wrapper the backend puts around every body.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Message    string          `json:"message,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`

	// Raw is the undecoded response body, kept for the few endpoints
	// (health) that reply outside the envelope.
	Raw []byte `json:"-"`
}

// Pagination accompanies list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Config holds the knobs shared by every remote call.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *resilience.RetryConfig
}

// Client talks to the grocery backend. It is constructed once at startup and
// passed by reference to everything that needs remote access.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retry      *resilience.RetryConfig
	tokens     TokenProvider
}

// NewClient builds a Client from config. tokens may be nil for
// unauthenticated use (guest carts).
func NewClient(config Config, tokens TokenProvider) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{},
		timeout:    config.Timeout,
		retry:      config.Retry,
		tokens:     tokens,
	}
}

// do performs one HTTP exchange per retry attempt, normalizes failures into
// *APIError, and decodes the response envelope. A non-nil result envelope is
// only returned on a 2xx response with success=true.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	if c.baseURL == "" {
		return nil, &APIError{Kind: KindValidation, Message: "base URL is not configured"}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindValidation, Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var envelope *Envelope
	var lastErr *APIError

	err := resilience.Retry(ctx, c.retry, func() error {
		env, apiErr := c.attempt(ctx, method, endpoint, payload)
		if apiErr == nil {
			envelope = env
			return nil
		}
		lastErr = apiErr
		if !apiErr.Retryable() {
			return resilience.NewPermanent(apiErr)
		}
		log.Printf("[Backend] %s %s failed (%s), will retry: %s", method, path, apiErr.Kind, apiErr.Message)
		return apiErr
	})
	if err != nil {
		if errors.Is(err, resilience.ErrMaxRetriesExceeded) && lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return envelope, nil
}

// attempt runs a single request bounded by the per-request timeout.
func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte) (*Envelope, *APIError) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, bodyReader)
	if err != nil {
		return nil, &APIError{Kind: KindValidation, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, &APIError{Kind: KindTimeout, Message: "request timed out"}
		}
		return nil, &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Message: err.Error()}
	}

	var env Envelope
	if len(raw) > 0 {
		// A body that does not parse on an error status is still an error;
		// keep the status-based classification in that case.
		_ = json.Unmarshal(raw, &env)
	}
	env.Raw = raw

	switch {
	case resp.StatusCode >= 500:
		return nil, &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: errorMessage(&env, resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &APIError{Kind: KindClient, StatusCode: resp.StatusCode, Message: errorMessage(&env, resp.StatusCode)}
	}

	// success=false on a 2xx only counts as a failure when the body is an
	// actual envelope; bare payloads (health) pass through untouched.
	if !env.Success && (env.Error != "" || env.Message != "") {
		return nil, &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Message: errorMessage(&env, resp.StatusCode)}
	}
	return &env, nil
}

func errorMessage(env *Envelope, status int) string {
	if env.Error != "" {
		return env.Error
	}
	if env.Message != "" {
		return env.Message
	}
	return http.StatusText(status)
}

// decodeData unmarshals the envelope payload into out.
func decodeData(env *Envelope, out any) error {
	if env == nil || len(env.Data) == 0 {
		return ErrNotFound
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &APIError{Kind: KindServer, Message: fmt.Sprintf("failed to decode response data: %v", err)}
	}
	return nil
}
