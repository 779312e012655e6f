package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// DeadLetter records a cart broadcast that exhausted its retries against one
// endpoint. The payload is kept in its typed form, cart snapshot included, so
// a later redelivery can re-sign and re-send it unchanged.
type DeadLetter struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
	URL       string    `json:"url"`
	Payload   Payload   `json:"payload"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
}

// DeadLetterStore appends exhausted deliveries to a JSONL file, one letter
// per line.
type DeadLetterStore struct {
	path string
	mu   sync.Mutex
}

// NewDeadLetterStore creates a dead letter store at the given path.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path}
}

// Append writes one dead letter to the file.
func (s *DeadLetterStore) Append(dl DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// ReadAll returns every dead letter in the file, oldest first. Lines that no
// longer decode are skipped rather than failing the whole read.
func (s *DeadLetterStore) ReadAll() ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []DeadLetter
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var dl DeadLetter
		if err := dec.Decode(&dl); err != nil {
			continue
		}
		entries = append(entries, dl)
	}
	return entries, nil
}

// ForEndpoint returns the dead letters recorded against one endpoint name,
// oldest first.
func (s *DeadLetterStore) ForEndpoint(name string) ([]DeadLetter, error) {
	entries, err := s.ReadAll()
	if err != nil {
		return nil, err
	}
	var matched []DeadLetter
	for _, dl := range entries {
		if dl.Endpoint == name {
			matched = append(matched, dl)
		}
	}
	return matched, nil
}
