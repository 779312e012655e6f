package cart

import "testing"

func TestLifecycle_StartsUninitialized(t *testing.T) {
	lc, err := newLifecycle()
	if err != nil {
		t.Fatalf("newLifecycle failed: %v", err)
	}
	if got := lc.current(); got != StateUninitialized {
		t.Errorf("expected %s, got %s", StateUninitialized, got)
	}
}

func TestLifecycle_HydrateThenMutateStaysLoaded(t *testing.T) {
	lc, err := newLifecycle()
	if err != nil {
		t.Fatalf("newLifecycle failed: %v", err)
	}

	lc.hydrate()
	if got := lc.current(); got != StateLoaded {
		t.Fatalf("expected %s after hydrate, got %s", StateLoaded, got)
	}

	for i := 0; i < 3; i++ {
		lc.mutate()
		if got := lc.current(); got != StateLoaded {
			t.Fatalf("expected %s after mutate, got %s", StateLoaded, got)
		}
	}
}

func TestLifecycle_MutateBeforeHydrateIsIgnored(t *testing.T) {
	lc, err := newLifecycle()
	if err != nil {
		t.Fatalf("newLifecycle failed: %v", err)
	}

	lc.mutate()
	if got := lc.current(); got != StateUninitialized {
		t.Errorf("mutate before hydrate should not transition, got %s", got)
	}
}
