package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Sink delivers feedback actions to the relay
type Sink interface {
	Send(ctx context.Context, action Action) error
}

// LogSink only records actions; the caller relays them from the response
type LogSink struct{}

// Send logs the action
func (LogSink) Send(ctx context.Context, action Action) error {
	log.Printf("[RELAY] %s", action)
	return nil
}

// HTTPSink posts each action as JSON to a relay endpoint
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates a sink posting to url
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts a single action
func (s *HTTPSink) Send(ctx context.Context, action Action) error {
	body, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach relay: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay rejected action: %s", resp.Status)
	}
	return nil
}

// SendAll sends every action independently. A failed send is logged and
// does not prevent the remaining sends; the number of failures is returned.
func SendAll(ctx context.Context, sink Sink, actions []Action) int {
	failed := 0
	for _, action := range actions {
		if err := sink.Send(ctx, action); err != nil {
			log.Printf("[RELAY] send %s failed: %v", action, err)
			failed++
		}
	}
	return failed
}
