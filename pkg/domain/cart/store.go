package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"go.uber.org/zap"

	"github.com/ritenv/cartified/pkg/domain/events"
)

// DefaultReviewTimeout bounds how long a save waits for the review gate to
// settle. An unsettled review would otherwise block persistence forever.
const DefaultReviewTimeout = 30 * time.Second

// Store owns the authoritative in-memory item list and drives persistence
// and notification through the event bus. Every public mutation reaches the
// key-value store and the notifier through a single permanent "sys-modified"
// binding; callers never persist directly.
type Store struct {
	mu     sync.Mutex
	items  []Item
	loaded bool

	// saveMu serializes snapshot, review, and write. Without it a save
	// holding a stale snapshot could settle its review after a newer save
	// already persisted, and clobber the record.
	saveMu sync.Mutex

	bus       *events.Bus
	kv        KeyValueStore
	gate      ReviewGate
	notifier  Notifier
	log       *zap.Logger
	key       string
	reviewTTL time.Duration
	lifecycle *lifecycle

	saves sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithStorageKey overrides the well-known key the cart record lives under.
func WithStorageKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithReviewTimeout overrides how long a save waits for the review gate.
// Zero disables the bound entirely.
func WithReviewTimeout(d time.Duration) Option {
	return func(s *Store) { s.reviewTTL = d }
}

// New creates a Store over the given collaborators. A nil gate means every
// save is auto-approved; a nil notifier discards broadcasts. The cart starts
// uninitialized and rehydrates from kv on first use.
func New(kv KeyValueStore, gate ReviewGate, notifier Notifier, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, &InvalidArgumentError{Op: "cart: new store", Reason: "key-value store is required"}
	}
	if gate == nil {
		gate = AutoApproveGate{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	lc, err := newLifecycle()
	if err != nil {
		return nil, err
	}

	s := &Store{
		bus:       events.NewBus(),
		kv:        kv,
		gate:      gate,
		notifier:  notifier,
		log:       zap.NewNop(),
		key:       DefaultStorageKey,
		reviewTTL: DefaultReviewTimeout,
		lifecycle: lc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The permanent choke point: every mutation fires "sys-modified", and
	// this binding alone updates the authoritative list, broadcasts the
	// change, and kicks off a gated save.
	s.bus.On(events.TypeSysModified, s.onSysModified)

	return s, nil
}

func (s *Store) onSysModified(evt events.Event) {
	items, ok := evt.Data.([]Item)
	if !ok {
		s.log.Warn("sys-modified event carried unexpected payload",
			zap.String("event_id", evt.ID))
		return
	}

	s.mu.Lock()
	s.items = cloneItems(items)
	s.loaded = true
	s.mu.Unlock()

	ctx := context.Background()
	s.Refresh(ctx, items)
	s.Save(ctx)
}

// State returns the lifecycle state: uninitialized until the first
// rehydration, loaded from then on.
func (s *Store) State() string {
	return s.lifecycle.current()
}

// Items returns a copy of the current cart. On first use the cart is
// rehydrated from the key-value store; an absent or malformed record reads
// as an empty cart, never as an error.
func (s *Store) Items(ctx context.Context) []Item {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) ensureLoaded(ctx context.Context) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	blob, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Debug("cart record unreadable, starting empty", zap.Error(err))
		blob = nil
	}
	items, err := DecodeRecord(blob)
	if err != nil {
		s.log.Debug("cart record malformed, starting empty", zap.Error(err))
		items = []Item{}
	}

	s.mu.Lock()
	if !s.loaded {
		s.items = items
		s.loaded = true
	}
	s.mu.Unlock()

	s.lifecycle.hydrate()
}

// AddItem adds qty of id to the cart, incrementing the quantity when the id
// is already present. A qty below 1 means the default of 1. An empty id is
// an InvalidArgumentError.
func (s *Store) AddItem(ctx context.Context, id string, qty int) ([]Item, error) {
	if id == "" {
		return nil, &InvalidArgumentError{Op: "cart: add item", Reason: "id is required"}
	}
	if qty < 1 {
		qty = 1
	}
	return s.AddItems(ctx, []Item{{ID: id, Qty: qty}})
}

// AddItems processes each entry against the current in-memory list: an
// existing id has its quantity incremented, a new id is appended. After each
// entry a "modified added sys-modified" event fires with the cumulative list
// snapshot, so a batch of n entries fires n times. Returns the final list.
// A nil slice is an InvalidArgumentError.
func (s *Store) AddItems(ctx context.Context, entries []Item) ([]Item, error) {
	if entries == nil {
		return nil, &InvalidArgumentError{Op: "cart: add items", Reason: "items sequence is required"}
	}

	s.ensureLoaded(ctx)

	s.mu.Lock()
	working := cloneItems(s.items)
	s.mu.Unlock()

	for _, entry := range entries {
		if entry.Qty < 1 {
			entry.Qty = 1
		}
		if _, idx := FindIn(entry.ID, working); idx >= 0 {
			working[idx].Qty += entry.Qty
		} else {
			working = append(working, entry)
		}
		s.fireMutation(events.TypeAdded, working)
	}

	return cloneItems(working), nil
}

// Find locates an item by id in the current cart. It returns the item and
// its position, or a zero Item and -1 when absent.
func (s *Store) Find(ctx context.Context, id string) (Item, int) {
	return FindIn(id, s.Items(ctx))
}

// Remove splices the item with the given id out of the cart and fires
// "modified removed sys-modified". It reports whether a removal occurred;
// an absent id leaves the cart untouched.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.ensureLoaded(ctx)

	s.mu.Lock()
	working := cloneItems(s.items)
	s.mu.Unlock()

	_, idx := FindIn(id, working)
	if idx < 0 {
		return false
	}

	working = append(working[:idx], working[idx+1:]...)
	s.fireMutation(events.TypeRemoved, working)
	return true
}

// Clear empties the cart, firing "modified removed cleared sys-modified"
// with an empty list; the sys-modified binding persists the empty state.
func (s *Store) Clear(ctx context.Context) {
	s.ensureLoaded(ctx)
	s.fire(events.NewTypeSet(events.TypeModified, events.TypeRemoved, events.TypeCleared, events.TypeSysModified), []Item{})
}

// ChangeQuantity replaces the quantity of the item with the given id in
// place, keeping its position, and fires "modified updated sys-modified".
// A qty below 1 is raised to 1. The optional fn receives the updated list.
// Reports whether the item was found; absent ids cause no side effects.
func (s *Store) ChangeQuantity(ctx context.Context, id string, qty int, fn func([]Item)) bool {
	if qty < 1 {
		qty = 1
	}

	s.ensureLoaded(ctx)

	s.mu.Lock()
	working := cloneItems(s.items)
	s.mu.Unlock()

	_, idx := FindIn(id, working)
	if idx < 0 {
		return false
	}

	working[idx] = Item{ID: id, Qty: qty}
	s.fireMutation(events.TypeUpdated, working)

	if fn != nil {
		fn(cloneItems(working))
	}
	return true
}

func (s *Store) fireMutation(kind events.Type, items []Item) {
	s.fire(events.NewTypeSet(events.TypeModified, kind, events.TypeSysModified), items)
}

func (s *Store) fire(set events.TypeSet, items []Item) {
	s.lifecycle.mutate()
	s.bus.Fire(set, cloneItems(items))
}

// Save asks the review gate to approve the current cart and, on approval,
// persists it to the key-value store and fires "persisted". On rejection
// the stored record is left untouched and the result resolves with
// ErrReviewRejected; a rejected review never panics the event pipeline.
// The review and the write run asynchronously; the returned SaveResult
// settles when they finish.
func (s *Store) Save(ctx context.Context) *SaveResult {
	res := newSaveResult()
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		res.resolve(s.doSave(ctx))
	}()
	return res
}

func (s *Store) doSave(ctx context.Context) error {
	// One save at a time, snapshot taken inside the critical section: the
	// last save to run snapshots the list as it stands after every earlier
	// write, so the record always ends equal to the current cart.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	items := cloneItems(s.items)
	s.mu.Unlock()

	decision, err := s.review(ctx, items)
	if err != nil {
		s.log.Warn("cart review did not settle", zap.Error(err))
		return fmt.Errorf("cart review: %w", err)
	}
	if !decision.Approved {
		s.log.Info("cart save rejected", zap.String("reason", decision.Reason))
		return &RejectedError{Reason: decision.Reason}
	}

	blob, err := EncodeRecord(items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}

	s.log.Debug("cart persisted", zap.Int("items", len(items)))
	s.bus.Fire(events.NewTypeSet(events.TypePersisted), cloneItems(items))
	return nil
}

func (s *Store) review(ctx context.Context, items []Item) (Decision, error) {
	if s.reviewTTL <= 0 {
		return s.gate.Review(ctx, items)
	}

	t := timeout.New[Decision](timeout.Config{DefaultTimeout: s.reviewTTL})
	return t.Execute(ctx, s.reviewTTL, func(ctx context.Context) (Decision, error) {
		return s.gate.Review(ctx, items)
	})
}

// On registers an external handler on the store's bus.
func (s *Store) On(t events.Type, h events.Handler) {
	s.bus.On(t, h)
}

// Unbind removes all bus bindings of the given type. Unbinding
// "sys-modified" also removes the store's own persistence binding.
func (s *Store) Unbind(t events.Type) {
	s.bus.Unbind(t)
}

// Refresh broadcasts the given list through the notifier as a
// "cart-modified" event. This is the sole integration point with the
// surrounding application.
func (s *Store) Refresh(ctx context.Context, items []Item) {
	s.notifier.Broadcast(ctx, BroadcastCartModified, cloneItems(items))
}

// Flush blocks until every in-flight save has settled.
func (s *Store) Flush() {
	s.saves.Wait()
}
