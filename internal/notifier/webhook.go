package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// WebhookRequest is the JSON body posted to the webhook.
type WebhookRequest struct {
	To       string        `json:"to"`
	Direct   bool          `json:"direct"`
	Streamer string        `json:"streamer"`
	URL      string        `json:"url,omitempty"`
	Text     string        `json:"text"`
	Items    []domain.Item `json:"items"`
	Total    int           `json:"total"`
}

// WebhookSink delivers messages by POSTing JSON to a configured URL.
// The URL is injected from config so tests can point to a local server.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver posts the message and expects any 2xx response.
func (s *WebhookSink) Deliver(ctx context.Context, d Delivery) error {
	listed := d.Items
	if len(listed) > MaxListedItems {
		listed = listed[:MaxListedItems]
	}

	body, err := json.Marshal(WebhookRequest{
		To:       d.Address,
		Direct:   d.Direct,
		Streamer: d.StreamerName,
		URL:      d.StreamerURL,
		Text:     FormatMessage(d),
		Items:    listed,
		Total:    len(d.Items),
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected webhook status: %d", resp.StatusCode)
	}
	return nil
}

// compile-time check that WebhookSink implements Sink
var _ Sink = (*WebhookSink)(nil)
