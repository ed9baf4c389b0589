package interop

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/hazyhaar/sinapp/horosafe"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("interop: status %d: %s", e.Status, e.Body)
}

// HTTPTransport returns a Handler that POSTs JSON to endpoint. The endpoint is
// checked against private addresses unless allowPrivate is set.
func HTTPTransport(client *http.Client, endpoint, apiKey string, allowPrivate bool) (Handler, error) {
	if err := horosafe.ValidateURL(endpoint, allowPrivate); err != nil {
		return nil, fmt.Errorf("interop: endpoint: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("interop: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("interop: do request: %w", err)
		}
		defer resp.Body.Close()

		body, err := horosafe.LimitedReadAll(resp.Body, horosafe.MaxResponseBody)
		if err != nil {
			return nil, fmt.Errorf("interop: read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	}, nil
}
