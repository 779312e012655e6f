package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoApproveGate(t *testing.T) {
	d, err := AutoApproveGate{}.Review(context.Background(), []Item{{ID: "a", Qty: 1}})
	require.NoError(t, err)
	assert.True(t, d.Approved)
}

func TestGateFunc_PassesItemsThrough(t *testing.T) {
	var seen []Item
	gate := GateFunc(func(ctx context.Context, items []Item) (Decision, error) {
		seen = items
		return Decision{Approved: false, Reason: "too many"}, nil
	})

	d, err := gate.Review(context.Background(), []Item{{ID: "a", Qty: 99}})
	require.NoError(t, err)
	assert.False(t, d.Approved)
	assert.Equal(t, "too many", d.Reason)
	assert.Equal(t, []Item{{ID: "a", Qty: 99}}, seen)
}
