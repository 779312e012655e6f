// Package wiring assembles the cart store and its collaborators from the
// workspace configuration.
package wiring

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ritenv/cartified/internal/infrastructure/config"
	"github.com/ritenv/cartified/internal/infrastructure/webhook"
	"github.com/ritenv/cartified/pkg/domain/cart"
	"github.com/ritenv/cartified/pkg/storage"
)

// Workspace bundles the wired collaborators for one application context.
type Workspace struct {
	Config   *config.Config
	Store    *cart.Store
	KV       *storage.FileStore
	Notifier cart.Notifier
	Log      *zap.Logger
}

// NewWorkspace loads the configuration rooted at root and wires a cart
// store over a filesystem key-value store. Configured webhook endpoints
// become the notifier, joined by any extra notifiers the host passes in
// (the serve command adds its websocket hub here); with none at all,
// broadcasts are dropped.
func NewWorkspace(root string, log *zap.Logger, extra ...cart.Notifier) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load workspace config: %w", err)
	}

	kv := storage.NewFileStore(cfg.StorageRoot)

	notifiers := make([]cart.Notifier, 0, len(extra)+1)
	if len(cfg.Webhooks) > 0 {
		deadLetter := webhook.NewDeadLetterStore(
			filepath.Join(cfg.StorageRoot, storage.CartifiedDir, "deadletters.jsonl"))
		notifiers = append(notifiers, webhook.NewNotifier(cfg.Webhooks, deadLetter, log))
	}
	notifiers = append(notifiers, extra...)

	var notifier cart.Notifier
	switch len(notifiers) {
	case 0:
		notifier = cart.NopNotifier{}
	case 1:
		notifier = notifiers[0]
	default:
		notifier = cart.MultiNotifier(notifiers...)
	}

	store, err := cart.New(kv, cart.AutoApproveGate{}, notifier,
		cart.WithLogger(log),
		cart.WithStorageKey(cfg.StorageKey),
		cart.WithReviewTimeout(cfg.ReviewTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("wire cart store: %w", err)
	}

	return &Workspace{
		Config:   cfg,
		Store:    store,
		KV:       kv,
		Notifier: notifier,
		Log:      log,
	}, nil
}
