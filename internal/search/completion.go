package search

import "sync/atomic"

const (
	stateCollecting int32 = iota
	stateCompleting
	stateCompleted
)

// Completion triggers.
const (
	triggerAllReplied = "all_replied"
	triggerDeadline   = "deadline"
	triggerNoIndexers = "no_indexers"
	triggerCancelled  = "cancelled"
)

// completion moves collecting → completing → completed. Only the first
// caller of begin wins; every other trigger becomes a no-op.
type completion struct {
	state atomic.Int32
	done  chan struct{}
}

func newCompletion() *completion {
	return &completion{done: make(chan struct{})}
}

func (c *completion) begin() bool {
	return c.state.CompareAndSwap(stateCollecting, stateCompleting)
}

func (c *completion) finish() {
	if c.state.CompareAndSwap(stateCompleting, stateCompleted) {
		close(c.done)
	}
}

func (c *completion) collecting() bool {
	return c.state.Load() == stateCollecting
}

func (c *completion) completed() bool {
	return c.state.Load() == stateCompleted
}
