package cart

import (
	"context"
	"sync"
)

// SaveResult is the asynchronous outcome of a Save. It resolves exactly
// once, for approvals and rejections alike; a rejected review is an
// observable error here, never a panic elsewhere.
type SaveResult struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newSaveResult() *SaveResult {
	return &SaveResult{done: make(chan struct{})}
}

func (r *SaveResult) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Done is closed when the save has settled.
func (r *SaveResult) Done() <-chan struct{} {
	return r.done
}

// Err returns the save's outcome. It is only meaningful once Done is
// closed; before that it returns nil.
func (r *SaveResult) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// Await blocks until the save settles or ctx is done, returning the save's
// outcome or the context error.
func (r *SaveResult) Await(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
