package form

import (
	"context"
	"sync"
)

// Completion is a one-shot callback run after a submission has been
// acknowledged. It can be cancelled until it fires; after cancellation
// Fire does nothing.
type Completion struct {
	mu        sync.Mutex
	fn        func()
	fired     bool
	cancelled bool
}

// NewCompletion wraps fn.
func NewCompletion(fn func()) *Completion {
	return &Completion{fn: fn}
}

// Fire runs the callback unless it already ran or was cancelled.
// It reports whether the callback ran.
func (c *Completion) Fire() bool {
	c.mu.Lock()
	if c.fired || c.cancelled {
		c.mu.Unlock()
		return false
	}
	c.fired = true
	fn := c.fn
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

// Cancel prevents a pending callback from running. It reports whether
// the callback was still pending.
func (c *Completion) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired || c.cancelled {
		return false
	}
	c.cancelled = true
	return true
}

// CancelOn cancels the completion when ctx is done. The returned stop
// function detaches it again.
func (c *Completion) CancelOn(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { c.Cancel() })
}

// Cancelled reports whether Cancel won.
func (c *Completion) Cancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
