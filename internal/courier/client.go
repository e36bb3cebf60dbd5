package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// TrackingEvent is one entry of the courier's event feed.
type TrackingEvent struct {
	Status string    `json:"status"`
	Time   time.Time `json:"timestamp"`
}

// Client is the tracking API surface the engine consumes.
type Client interface {
	RegisterTracking(ctx context.Context, courier, trackingID string) error
	FetchEvents(ctx context.Context, trackingID string) ([]TrackingEvent, error)
}

// HTTPClient wraps the courier tracking API. Fetches run through a circuit
// breaker so a flapping courier does not get hammered on every poll.
type HTTPClient struct {
	BaseURL string
	APIKey  func(ctx context.Context) (string, error)
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]TrackingEvent]
}

func NewHTTPClient(baseURL string, apiKey func(ctx context.Context) (string, error)) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[[]TrackingEvent](gobreaker.Settings{
			Name:    "courier-tracking",
			Timeout: 60 * time.Second,
		}),
	}
}

func (c *HTTPClient) RegisterTracking(ctx context.Context, courier, trackingID string) error {
	key, err := c.APIKey(ctx)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(map[string]string{"courier": courier, "trackingId": trackingID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", key)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("register tracking: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("register tracking: %s", res.Status)
	}
	return nil
}

func (c *HTTPClient) FetchEvents(ctx context.Context, trackingID string) ([]TrackingEvent, error) {
	return c.breaker.Execute(func() ([]TrackingEvent, error) {
		key, err := c.APIKey(ctx)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/status/"+trackingID, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", key)

		res, err := c.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch tracking: %w", err)
		}
		defer res.Body.Close()
		if res.StatusCode/100 != 2 {
			return nil, fmt.Errorf("fetch tracking: %s", res.Status)
		}

		var out struct {
			Events []TrackingEvent `json:"events"`
		}
		if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decode tracking feed: %w", err)
		}
		return out.Events, nil
	})
}
