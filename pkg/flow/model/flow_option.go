package model

import "time"

// FlowOption defines the interface for flow options. Options observe the
// construction of the graph and the lifecycle of tasks during a run.
type FlowOption interface {
	// New initialises the flow option.
	New() error

	// PrepareStep runs when a linear or fanout step is added to the flow.
	// The parent is nil for the root step.
	PrepareStep(parent, step *StepInfo) error
	// PrepareJoin runs when a join step is added to the flow. The parents
	// are the declared predecessors, in declaration order.
	PrepareJoin(parents []*StepInfo, join *StepInfo) error

	// OnTaskEnd runs once per task when it reaches a terminal status.
	OnTaskEnd(step *StepInfo, taskID string, status TaskStatus, elapsed time.Duration) error

	// Finish runs after the run is finished.
	Finish() error
}
