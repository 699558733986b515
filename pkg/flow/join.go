package flow

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// JoinCoordinator collects the outputs of every branch feeding a join step
// before the join is admitted to run. Branch completions may arrive
// concurrently; each declared predecessor is recorded exactly once and the
// collected inputs come back in predecessor declaration order.
type JoinCoordinator struct {
	mu    sync.Mutex
	joins map[string]*joinState
}

type joinState struct {
	expected []string
	inputs   map[string]*BranchInput
	done     chan struct{}
}

// NewJoinCoordinator creates an empty coordinator.
func NewJoinCoordinator() *JoinCoordinator {
	return &JoinCoordinator{
		joins: make(map[string]*joinState),
	}
}

// Declare registers a join step and its predecessors, in declaration order.
func (c *JoinCoordinator) Declare(join string, predecessors []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expected := make([]string, len(predecessors))
	copy(expected, predecessors)

	c.joins[join] = &joinState{
		expected: expected,
		inputs:   make(map[string]*BranchInput),
		done:     make(chan struct{}),
	}
}

// RegisterCompletion records the result of one branch of the join.
func (c *JoinCoordinator) RegisterCompletion(join, branch string, input *BranchInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.joins[join]
	if !ok {
		return errors.Wrapf(ErrUnknownJoin, "join %q", join)
	}

	found := false
	for _, name := range state.expected {
		if name == branch {
			found = true

			break
		}
	}
	if !found {
		return errors.Wrapf(ErrUnknownBranch, "branch %q, join %q", branch, join)
	}

	if _, ok := state.inputs[branch]; ok {
		return errors.Wrapf(ErrDuplicateBranch, "branch %q, join %q", branch, join)
	}

	state.inputs[branch] = input

	if len(state.inputs) == len(state.expected) {
		close(state.done)
	}

	return nil
}

// TryAdmit returns the collected inputs once every predecessor has reported,
// ordered by predecessor declaration. Until then it returns ErrJoinNotReady,
// which is a normal wait outcome.
func (c *JoinCoordinator) TryAdmit(join string) ([]*BranchInput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.joins[join]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownJoin, "join %q", join)
	}

	if len(state.inputs) != len(state.expected) {
		return nil, ErrJoinNotReady
	}

	return state.ordered(), nil
}

// Wait blocks until every predecessor has reported or the context is done.
func (c *JoinCoordinator) Wait(ctx context.Context, join string) ([]*BranchInput, error) {
	c.mu.Lock()
	state, ok := c.joins[join]
	c.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownJoin, "join %q", join)
	}

	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "waiting for join %q", join)
	case <-state.done:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return state.ordered(), nil
}

func (s *joinState) ordered() []*BranchInput {
	out := make([]*BranchInput, 0, len(s.expected))
	for _, name := range s.expected {
		out = append(out, s.inputs[name])
	}

	return out
}
