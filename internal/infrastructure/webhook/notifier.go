// Package webhook delivers cart change broadcasts to outgoing webhook
// endpoints. It implements the cart.Notifier boundary: fire-and-forget from
// the store's point of view, with retries and a dead-letter file behind it.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ritenv/cartified/pkg/domain/cart"
)

// Endpoint configures a single outgoing webhook.
type Endpoint struct {
	Name         string        `yaml:"name" json:"name"`
	URL          string        `yaml:"url" json:"url"`
	Secret       string        `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string      `yaml:"event_filters,omitempty" json:"event_filters,omitempty"` // empty = all events
	MaxRetries   int           `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RetryDelay   time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
}

// Notifier broadcasts cart changes to all matching webhook endpoints.
type Notifier struct {
	endpoints  []Endpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	log        *zap.Logger
	inflight   sync.WaitGroup
}

// NewNotifier creates a notifier with the given endpoints and dead letter
// store. A nil logger defaults to no-op.
func NewNotifier(endpoints []Endpoint, deadLetter *DeadLetterStore, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
		log:        log,
	}
}

// Payload is the JSON body sent to webhook endpoints.
type Payload struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Items     []cart.Item `json:"items"`
}

// Broadcast sends the event to every enabled endpoint whose filter matches.
// Delivery is asynchronous; the caller is never blocked by a slow endpoint.
func (n *Notifier) Broadcast(ctx context.Context, event string, items []cart.Item) {
	payload := Payload{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now(),
		Items:     items,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn("webhook payload marshal failed", zap.Error(err))
		return
	}

	for _, ep := range n.endpoints {
		if !ep.Enabled {
			continue
		}
		if !n.matchesFilter(ep, event) {
			continue
		}
		n.inflight.Add(1)
		go func(ep Endpoint) {
			defer n.inflight.Done()
			n.deliver(ctx, ep, payload, body)
		}(ep)
	}
}

// Flush blocks until all in-flight deliveries have finished.
func (n *Notifier) Flush() {
	n.inflight.Wait()
}

func (n *Notifier) matchesFilter(ep Endpoint, event string) bool {
	if len(ep.EventFilters) == 0 {
		return true
	}
	for _, f := range ep.EventFilters {
		if f == event {
			return true
		}
	}
	return false
}

func (n *Notifier) deliver(ctx context.Context, ep Endpoint, payload Payload, body []byte) {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := ep.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := n.send(ctx, ep, body); err != nil {
			lastErr = err
			if attempt < maxRetries {
				time.Sleep(retryDelay * time.Duration(attempt)) // linear backoff
			}
			continue
		}
		return // success
	}

	n.log.Warn("webhook delivery failed",
		zap.String("endpoint", ep.Name),
		zap.String("event", payload.Event),
		zap.Error(lastErr))

	// All retries exhausted, dead letter
	if n.deadLetter != nil && lastErr != nil {
		dl := DeadLetter{
			Timestamp: time.Now(),
			Endpoint:  ep.Name,
			URL:       ep.URL,
			Payload:   payload,
			Error:     lastErr.Error(),
			Attempts:  maxRetries,
		}
		_ = n.deadLetter.Append(dl)
	}
}

func (n *Notifier) send(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Cartified-Webhook/1.0")

	if ep.Secret != "" {
		sig := sign(body, ep.Secret)
		req.Header.Set("X-Cartified-Signature", sig)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
