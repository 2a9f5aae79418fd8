package pipeline

import (
	"context"
)

// Pool bounds how many pipeline runs execute at once. Callers beyond
// the limit block until a slot frees up or their context is done.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given number of slots.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// Run executes orch.Run within a pool slot.
func (p *Pool) Run(ctx context.Context, orch *Orchestrator, input string) (*Outcome, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.slots }()

	return orch.Run(ctx, input)
}
