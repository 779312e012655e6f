package cart

import "context"

// DefaultStorageKey is the well-known key the serialized cart lives under.
const DefaultStorageKey = "cart"

// KeyValueStore is the durable store holding the serialized cart blob under
// a single well-known key. Get returns (nil, nil) for an absent key; the
// load path treats any Get failure or malformed blob as an empty cart.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
}
