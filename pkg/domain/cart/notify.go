package cart

import "context"

// BroadcastCartModified is the event name forwarded to the host
// application's notifier on every cart change.
const BroadcastCartModified = "cart-modified"

// Notifier is the host application's broadcast mechanism. Broadcast is
// fire-and-forget: no acknowledgment, and a slow or failing notifier must
// not affect cart state or persistence.
type Notifier interface {
	Broadcast(ctx context.Context, event string, items []Item)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event string, items []Item)

func (f NotifierFunc) Broadcast(ctx context.Context, event string, items []Item) {
	f(ctx, event, items)
}

// NopNotifier discards every broadcast.
type NopNotifier struct{}

func (NopNotifier) Broadcast(ctx context.Context, event string, items []Item) {}

// MultiNotifier fans each broadcast out to every given notifier, in order.
func MultiNotifier(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, event string, items []Item) {
		for _, n := range notifiers {
			n.Broadcast(ctx, event, items)
		}
	})
}
