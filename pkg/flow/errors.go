package flow

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrFlowMustBeSet     = errors.New("flow must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
	ErrStepBodyMustBeSet = errors.New("step body must be set")
	ErrFlowSealed        = errors.New("flow cannot be modified once a run has started")

	// ErrDuplicateArtifact is returned when a task writes the same artifact
	// name twice. Artifacts are write-once.
	ErrDuplicateArtifact = errors.New("artifact already exists")
	// ErrArtifactNotFound is returned when a task reads an artifact that was
	// never written.
	ErrArtifactNotFound  = errors.New("artifact not found")
	// ErrTaskImmutable is returned when writing to a task that has already
	// reached a terminal status.
	ErrTaskImmutable     = errors.New("task is immutable after completion")

	// ErrJoinNotReady signals that not every predecessor branch of a join
	// has reported yet. It is a normal wait outcome, not a failure.
	ErrJoinNotReady    = errors.New("join is not ready")
	ErrUnknownJoin     = errors.New("unknown join step")
	ErrUnknownBranch   = errors.New("branch is not a predecessor of the join")
	ErrDuplicateBranch = errors.New("branch already registered for the join")
)

// GraphError reports a malformed flow graph. It is only ever produced at
// construction or validation time, never while a run is in flight.
type GraphError struct {
	Step   string
	Reason string
}

func (e *GraphError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("invalid flow graph: %s", e.Reason)
	}

	return fmt.Sprintf("invalid flow graph: step %q: %s", e.Step, e.Reason)
}

func newGraphError(step, reason string) *GraphError {
	return &GraphError{Step: step, Reason: reason}
}

// TaskError reports the failure of one task. It identifies the originating
// step and task of a failed run.
type TaskError struct {
	RunID  string
	Step   string
	TaskID string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("run %s: step %q (task %s) failed: %v", e.RunID, e.Step, e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
