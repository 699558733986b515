// Package backend holds the pluggable collaborators of the flow core:
// metadata tracking, artifact persistence and execution environments.
// Implementations are selected by configuration at run start and injected
// into the runner, they are never resolved at call sites.
package backend

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// ErrNotFound is returned by a Datastore when a key was never stored.
var ErrNotFound = errors.New("key not found in datastore")

// Metadata records task state transitions. The runner calls RegisterTask on
// every transition of every task.
type Metadata interface {
	RegisterTask(ctx context.Context, runID, stepName, taskID string, status model.TaskStatus) error
}

// By convention, datastore keys are scoped to a task: one (taskID, name)
// pair maps to exactly one value.
type Datastore interface {
	Store(ctx context.Context, taskID, name string, data []byte) error
	Load(ctx context.Context, taskID, name string) ([]byte, error)
	Close() error
}

// Environment prepares the execution context of a task before the runner
// invokes the step body. It is opaque to the scheduler.
type Environment interface {
	Prepare(ctx context.Context, runID string, step *model.StepInfo) error
}
