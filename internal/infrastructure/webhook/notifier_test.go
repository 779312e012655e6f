package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ritenv/cartified/pkg/domain/cart"
)

func TestNotifier_DeliverySuccess(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := Endpoint{
		Name:    "test",
		URL:     server.URL,
		Enabled: true,
	}

	n := NewNotifier([]Endpoint{ep}, nil, nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, []cart.Item{{ID: "a", Qty: 1}})
	n.Flush()

	if received.Load() != 1 {
		t.Errorf("expected 1 delivery, got %d", received.Load())
	}
}

func TestNotifier_PayloadShape(t *testing.T) {
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := Endpoint{Name: "test", URL: server.URL, Enabled: true}
	n := NewNotifier([]Endpoint{ep}, nil, nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, []cart.Item{{ID: "a", Qty: 2}})
	n.Flush()

	var payload Payload
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ID == "" {
		t.Error("expected payload ID")
	}
	if payload.Event != cart.BroadcastCartModified {
		t.Errorf("expected event %q, got %q", cart.BroadcastCartModified, payload.Event)
	}
	if len(payload.Items) != 1 || payload.Items[0].ID != "a" || payload.Items[0].Qty != 2 {
		t.Errorf("unexpected items: %+v", payload.Items)
	}
}

func TestNotifier_HMACSignature(t *testing.T) {
	secret := "test-secret"
	var receivedSig string
	var receivedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSig = r.Header.Get("X-Cartified-Signature")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := Endpoint{
		Name:    "test",
		URL:     server.URL,
		Secret:  secret,
		Enabled: true,
	}

	n := NewNotifier([]Endpoint{ep}, nil, nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, nil)
	n.Flush()

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(receivedBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if receivedSig != want {
		t.Errorf("signature mismatch: got %q want %q", receivedSig, want)
	}
}

func TestNotifier_DisabledEndpointSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("disabled endpoint must not receive deliveries")
	}))
	defer server.Close()

	ep := Endpoint{Name: "off", URL: server.URL, Enabled: false}
	n := NewNotifier([]Endpoint{ep}, nil, nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, nil)
	n.Flush()
}

func TestNotifier_EventFilter(t *testing.T) {
	var received atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ep := Endpoint{
		Name:         "filtered",
		URL:          server.URL,
		EventFilters: []string{"cart-modified"},
		Enabled:      true,
	}

	n := NewNotifier([]Endpoint{ep}, nil, nil)
	n.Broadcast(context.Background(), "something-else", nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, nil)
	n.Flush()

	if received.Load() != 1 {
		t.Errorf("expected only the matching event delivered, got %d", received.Load())
	}
}

func TestNotifier_DeadLetterAfterRetryExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dlPath := filepath.Join(t.TempDir(), "deadletters.jsonl")
	store := NewDeadLetterStore(dlPath)

	ep := Endpoint{
		Name:       "failing",
		URL:        server.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		Enabled:    true,
	}

	n := NewNotifier([]Endpoint{ep}, store, nil)
	n.Broadcast(context.Background(), cart.BroadcastCartModified, []cart.Item{{ID: "a", Qty: 1}})
	n.Flush()

	entries, err := store.ForEndpoint("failing")
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(entries))
	}
	if entries[0].Endpoint != "failing" {
		t.Errorf("unexpected endpoint %q", entries[0].Endpoint)
	}
	if entries[0].Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", entries[0].Attempts)
	}
	letter := entries[0].Payload
	if letter.Event != cart.BroadcastCartModified {
		t.Errorf("expected event %q, got %q", cart.BroadcastCartModified, letter.Event)
	}
	if len(letter.Items) != 1 || letter.Items[0].ID != "a" || letter.Items[0].Qty != 1 {
		t.Errorf("expected the cart snapshot preserved, got %+v", letter.Items)
	}

	other, err := store.ForEndpoint("other")
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if other != nil {
		t.Errorf("expected no dead letters for unrelated endpoint, got %v", other)
	}
}

func TestDeadLetterStore_ReadAllMissingFile(t *testing.T) {
	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "absent.jsonl"))

	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}
