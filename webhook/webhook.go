package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/trendscout/models"
)

// EventSnapshotSaved is sent once per persisted snapshot.
const EventSnapshotSaved = "snapshot.saved"

// SignatureHeader carries "sha256=<hex>" of the body when a secret is set.
const SignatureHeader = "X-Trendscout-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      *models.SnapshotRecord `json:"data"`
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Trendscout-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifier posts every saved snapshot to one endpoint.
type Notifier struct {
	URL    string
	Secret string
	// Delays are the waits before each attempt; the first is usually 0.
	Delays []time.Duration

	client *http.Client
}

// NewNotifier returns a Notifier retrying after 1s, 5s and 30s.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		URL:    url,
		Secret: secret,
		Delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify delivers rec in the background. It never blocks the capture and
// outlives the request that produced rec.
func (n *Notifier) Notify(_ context.Context, rec *models.SnapshotRecord) {
	event := &Event{
		Type:      EventSnapshotSaved,
		Timestamp: time.Now().Unix(),
		Data:      rec,
	}
	go n.deliverWithRetry(event)
}

func (n *Notifier) deliverWithRetry(event *Event) error {
	var err error
	for attempt, delay := range n.Delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = Deliver(ctx, n.client, n.URL, n.Secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", n.URL,
				"event", event.Type,
				"unique_id", event.Data.UniqueID,
				"attempt", attempt+1,
			)
			return nil
		}
		slog.Warn("webhook delivery failed",
			"url", n.URL,
			"event", event.Type,
			"unique_id", event.Data.UniqueID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", n.URL,
		"event", event.Type,
		"unique_id", event.Data.UniqueID,
	)
	return err
}
