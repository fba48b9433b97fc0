// Package meeting calls the external meeting-provisioning service that
// issues online-consultation URLs.
package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 10 * time.Second
	maxAttempts    = 3
	retryBackoff   = 500 * time.Millisecond
)

// Client is an HTTP client for the meeting provider. Provisioning is
// retried with a short backoff because it runs off the request path
// and a transient provider error should not cost the booking its URL.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

type createRequest struct {
	Reference string `json:"reference"`
}

type createResponse struct {
	JoinURL string `json:"join_url"`
}

// CreateMeeting asks the provider for a meeting room keyed by the
// appointment id and returns its join URL.
func (c *Client) CreateMeeting(ctx context.Context, appointmentID uuid.UUID) (string, error) {
	body, err := json.Marshal(createRequest{Reference: appointmentID.String()})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoff):
			}
		}

		url, err := c.create(ctx, body)
		if err == nil {
			return url, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Int("attempt", attempt).
			Str("appointment_id", appointmentID.String()).
			Msg("meeting provisioning attempt failed")
	}
	return "", fmt.Errorf("create meeting after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) create(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/meetings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("meeting provider returned %d", resp.StatusCode)
	}

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if out.JoinURL == "" {
		return "", fmt.Errorf("meeting provider returned no join url")
	}
	return out.JoinURL, nil
}
