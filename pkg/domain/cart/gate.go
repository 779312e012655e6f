package cart

import "context"

// Decision is a review gate's verdict on a pending save.
type Decision struct {
	Approved bool
	Reason   string
}

// ReviewGate approves or rejects a pending save before anything reaches the
// key-value store. What is reviewed, and why, is deliberately left to the
// implementation; the store only honors the verdict. Review blocks until the
// gate settles or ctx is done; the store bounds it with the configured
// review timeout.
type ReviewGate interface {
	Review(ctx context.Context, items []Item) (Decision, error)
}

// GateFunc adapts a function to the ReviewGate interface.
type GateFunc func(ctx context.Context, items []Item) (Decision, error)

func (f GateFunc) Review(ctx context.Context, items []Item) (Decision, error) {
	return f(ctx, items)
}

// AutoApproveGate approves every save unconditionally. It is the default
// gate when none is injected.
type AutoApproveGate struct{}

func (AutoApproveGate) Review(ctx context.Context, items []Item) (Decision, error) {
	return Decision{Approved: true}, nil
}
