// Package events provides the ordered pub/sub bus the cart store publishes
// its change notifications through.
package events

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies a kind of event.
type Type string

// Event types fired by the cart store.
const (
	TypeModified    Type = "modified"
	TypeAdded       Type = "added"
	TypeRemoved     Type = "removed"
	TypeUpdated     Type = "updated"
	TypeCleared     Type = "cleared"
	TypeSysModified Type = "sys-modified"
	TypePersisted   Type = "persisted"
)

// TypeSet is the structured form of a compound event name. A single fire may
// target several types at once; membership decides which bindings run.
type TypeSet map[Type]struct{}

// NewTypeSet builds a TypeSet from the given types.
func NewTypeSet(types ...Type) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// ParseTypes builds a TypeSet from a whitespace-separated compound event
// name such as "modified added sys-modified".
func ParseTypes(compound string) TypeSet {
	fields := strings.Fields(compound)
	s := make(TypeSet, len(fields))
	for _, f := range fields {
		s[Type(f)] = struct{}{}
	}
	return s
}

// Has reports whether t is a member of the set.
func (s TypeSet) Has(t Type) bool {
	_, ok := s[t]
	return ok
}

// String renders the set back into its compound form with types sorted,
// so equal sets always render identically.
func (s TypeSet) String() string {
	names := make([]string, 0, len(s))
	for t := range s {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Event is the envelope delivered to handlers. Type is the type the binding
// was registered under; Fired is the complete set the publisher fired, so a
// handler can tell an "added" modification from a "removed" one.
type Event struct {
	ID         string
	Type       Type
	Fired      TypeSet
	OccurredAt time.Time
	Data       any
}

// Handler reacts to a delivered event.
type Handler func(evt Event)

type binding struct {
	eventType Type
	handler   Handler
}

// Bus is an insertion-ordered registry of (type, handler) bindings.
// Unlike a per-type bucket map, a single ordered slice preserves
// registration order across types, which fire delivery must respect.
// Duplicate registrations for the same type are kept and all invoked.
type Bus struct {
	mu       sync.RWMutex
	bindings []binding
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// On registers a handler for a single event type. No uniqueness constraint:
// registering the same handler twice means it runs twice.
func (b *Bus) On(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = append(b.bindings, binding{eventType: t, handler: h})
}

// Fire delivers data to every binding whose type is a member of set, in
// registration order. Handlers run synchronously before Fire returns.
// Delivery iterates a snapshot of the registry, so handlers may call On or
// Unbind mid-fire without bindings being skipped or invoked twice.
func (b *Bus) Fire(set TypeSet, data any) {
	b.mu.RLock()
	snapshot := make([]binding, len(b.bindings))
	copy(snapshot, b.bindings)
	b.mu.RUnlock()

	id := uuid.NewString()
	now := time.Now()
	for _, bd := range snapshot {
		if !set.Has(bd.eventType) {
			continue
		}
		bd.handler(Event{
			ID:         id,
			Type:       bd.eventType,
			Fired:      set,
			OccurredAt: now,
			Data:       data,
		})
	}
}

// FireCompound is Fire with the compound space-separated form:
// FireCompound("modified added sys-modified", data).
func (b *Bus) FireCompound(compound string, data any) {
	b.Fire(ParseTypes(compound), data)
}

// Unbind removes every binding whose type exactly equals t. Bindings of
// other types keep their relative order. The registry is rebuilt by
// filtering into a fresh slice rather than removed from in place.
func (b *Bus) Unbind(t Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.bindings[:0:0]
	for _, bd := range b.bindings {
		if bd.eventType != t {
			kept = append(kept, bd)
		}
	}
	b.bindings = kept
}

// BindingCount returns the number of bindings registered for t.
func (b *Bus) BindingCount(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, bd := range b.bindings {
		if bd.eventType == t {
			n++
		}
	}
	return n
}
