package model

import "time"

// StepKind describes the role of a step inside a flow graph.
type StepKind string

const (
	// LinearStepKind is a step with a single successor.
	LinearStepKind StepKind = "linear"
	// FanoutStepKind is a step whose successors run as parallel branches.
	FanoutStepKind StepKind = "fanout"
	// JoinStepKind is a step that waits for every branch of a fanout.
	JoinStepKind StepKind = "join"
)

// StepInfo carries the static definition of a step. It is created once when
// the step is added to a flow and is read-only during execution.
type StepInfo struct {
	Kind StepKind
	Name string

	// Timeout bounds the execution of one task of this step.
	// Zero means no timeout.
	Timeout time.Duration

	// Resource hints. They are plain configuration fields consumed by
	// environment backends, the scheduler ignores them.
	CPU      int
	MemoryMB int
}

// Step is a handle on a step inside a flow graph.
type Step struct {
	Info *StepInfo
}
