// Package config loads the cartified application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ritenv/cartified/internal/infrastructure/webhook"
	"github.com/ritenv/cartified/pkg/domain/cart"
)

const configFile = "config.yaml"

// Config holds everything the demo application wires from disk: where the
// cart record lives, how long a save waits on review, and which webhook
// endpoints hear about changes.
type Config struct {
	StorageRoot   string             `yaml:"storage_root"`
	StorageKey    string             `yaml:"storage_key"`
	ReviewTimeout time.Duration      `yaml:"review_timeout"`
	Webhooks      []webhook.Endpoint `yaml:"webhooks,omitempty"`
}

// Default returns the configuration used when no file exists: cart record
// under root, default key, default review timeout, no webhooks.
func Default(root string) *Config {
	return &Config{
		StorageRoot:   root,
		StorageKey:    cart.DefaultStorageKey,
		ReviewTimeout: cart.DefaultReviewTimeout,
	}
}

// Load reads config.yaml from root, falling back to Default when the file
// does not exist. Unset fields take their defaults.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(root), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default(root)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = root
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = cart.DefaultStorageKey
	}
	if cfg.ReviewTimeout <= 0 {
		cfg.ReviewTimeout = cart.DefaultReviewTimeout
	}

	return cfg, nil
}

// Save writes the configuration to config.yaml under root.
func Save(root string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(root, configFile), data, 0600)
}
