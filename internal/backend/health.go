package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// HealthStatus is the /health payload. Unlike the API routes it is not
// wrapped in the common envelope.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

// Health pings the backend. It rides the same retry/timeout policy as every
// other call.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	env, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := json.Unmarshal(env.Raw, &status); err != nil {
		return nil, &APIError{Kind: KindServer, Message: "failed to decode health response"}
	}
	return &status, nil
}
