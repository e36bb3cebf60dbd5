package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway opens a transaction with the payment provider. Confirmation arrives
// out-of-band through the verify endpoint.
type Gateway interface {
	CreateTransaction(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// Credentials are fetched from the settings snapshot per operation.
type Credentials struct {
	Key    string
	Secret string
}

// HTTPGateway talks to a razorpay-style orders API with basic auth.
type HTTPGateway struct {
	BaseURL string
	Creds   func(ctx context.Context) (Credentials, error)
	Client  *http.Client
}

func NewHTTPGateway(baseURL string, creds func(ctx context.Context) (Credentials, error)) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Creds:   creds,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) CreateTransaction(ctx context.Context, amountMinor int64, currency string) (string, error) {
	creds, err := g.Creds(ctx)
	if err != nil {
		return "", fmt.Errorf("gateway credentials: %w", err)
	}

	body, err := json.Marshal(map[string]any{
		"amount":          amountMinor,
		"currency":        currency,
		"payment_capture": 1,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(creds.Key, creds.Secret)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return "", fmt.Errorf("gateway returned %s", res.Status)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("gateway response missing transaction id")
	}
	return out.ID, nil
}
