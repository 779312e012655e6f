// Package storage provides key-value store implementations backing the cart
// store: a durable filesystem store and an in-memory store for tests and
// ephemeral use.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// CartifiedDir is the directory blobs live under, inside the store's root.
const CartifiedDir = ".cartified"

// FileStore persists each key as a JSON blob file under root/.cartified.
// Reads retry transient failures with exponential backoff.
type FileStore struct {
	root        string
	retryConfig retry.Config
}

// NewFileStore creates a FileStore rooted at the given directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the store's root directory.
func (s *FileStore) Root() string {
	return s.root
}

// resolvePath maps a key to its blob file and rejects anything that would
// escape the .cartified directory.
func (s *FileStore) resolvePath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}

	baseDir := filepath.Join(s.root, CartifiedDir)
	fullPath := filepath.Join(baseDir, key+".json")
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}

	return cleanPath, nil
}

// Get reads the blob stored under key. An absent key returns (nil, nil).
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	retryer := retry.New[[]byte](s.retryConfig)

	return retryer.Do(ctx, func(ctx context.Context) ([]byte, error) {
		path, err := s.resolvePath(key)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via resolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
		}
		return data, nil
	})
}

// Set writes the blob under key, creating the .cartified directory on first
// use.
func (s *FileStore) Set(ctx context.Context, key string, blob []byte) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return err
	}

	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", CartifiedDir, err)
	}

	// G306: Use 0600 for files
	if err := os.WriteFile(path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob under key. Deleting an absent key is a no-op.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolvePath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
