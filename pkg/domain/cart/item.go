// Package cart implements the in-process shopping cart state manager: an
// ordered collection of line items with mutation operations, durable
// persistence through a key-value store, and change notification through
// the events bus.
package cart

// Item is a single cart line: a caller-supplied identifier and a positive
// quantity. At most one Item per ID exists within a cart; adding an existing
// ID increments its quantity instead of duplicating the entry.
type Item struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// FindIn scans items for id and returns the matching item and its position,
// or a zero Item and -1 when absent. If duplicate IDs existed (they should
// not, by invariant) the last match wins.
func FindIn(id string, items []Item) (Item, int) {
	var match Item
	index := -1
	for i, it := range items {
		if it.ID == id {
			match = it
			index = i
		}
	}
	return match, index
}

// cloneItems copies a snapshot so callers and event handlers never alias the
// authoritative list.
func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
