package cart

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states for the store. The cart is created uninitialized,
// becomes loaded on first rehydration, and re-enters loaded on every
// mutation. There is no terminal state.
const (
	StateUninitialized = "uninitialized"
	StateLoaded        = "loaded"
)

const (
	lifecycleHydrate = "hydrate"
	lifecycleMutate  = "mutate"
)

type lifecycleContext struct{}

// lifecycle wraps the statekit interpreter driving the store's state.
type lifecycle struct {
	interpreter *statekit.Interpreter[lifecycleContext]
}

func newLifecycle() (*lifecycle, error) {
	builder := statekit.NewMachine[lifecycleContext]("cart-lifecycle").
		WithInitial(statekit.StateID(StateUninitialized)).
		WithContext(lifecycleContext{})

	builder.State(StateUninitialized).
		On(lifecycleHydrate).Target(StateLoaded).
		Done()

	// Loaded is a self-loop: every mutation re-enters it with new contents.
	builder.State(StateLoaded).
		On(lifecycleMutate).Target(StateLoaded).
		On(lifecycleHydrate).Target(StateLoaded).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build cart lifecycle: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &lifecycle{interpreter: interpreter}, nil
}

func (l *lifecycle) hydrate() {
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(lifecycleHydrate)})
}

func (l *lifecycle) mutate() {
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(lifecycleMutate)})
}

func (l *lifecycle) current() string {
	return string(l.interpreter.State().Value)
}
