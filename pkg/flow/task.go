package flow

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/askiada/go-stepflow/pkg/flow/model"
	"github.com/askiada/go-stepflow/pkg/flow/profile"
)

// Task is one execution instance of a step within a run. It owns a private
// artifact namespace: the task writes artifacts only while it is running and
// becomes immutable once it reaches a terminal status. Downstream tasks read
// its artifacts freely after that.
type Task struct {
	id    string
	runID string
	step  *model.StepInfo

	mu     sync.Mutex
	status model.TaskStatus

	artifacts *ArtifactStore
	input     *BranchInput
	stats     profile.Stats
	log       hclog.Logger
}

func newTask(runID string, step *model.StepInfo, artifacts *ArtifactStore, input *BranchInput, stats profile.Stats, log hclog.Logger) *Task {
	return &Task{
		id:        uuid.NewString(),
		runID:     runID,
		step:      step,
		status:    model.TaskPending,
		artifacts: artifacts,
		input:     input,
		stats:     stats,
		log:       log,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// RunID returns the identifier of the run the task belongs to.
func (t *Task) RunID() string { return t.runID }

// Step returns the step definition the task executes.
func (t *Task) Step() *model.StepInfo { return t.step }

// Status returns the current task status.
func (t *Task) Status() model.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.status
}

func (t *Task) setStatus(status model.TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Put stores a named artifact in the task's own namespace. It fails with
// ErrTaskImmutable once the task has reached a terminal status and with
// ErrDuplicateArtifact when the name was already written.
func (t *Task) Put(ctx context.Context, name string, value any) error {
	if t.Status().Terminal() {
		return ErrTaskImmutable
	}

	return t.artifacts.Put(ctx, t.id, name, value)
}

// Get loads a named artifact from the task's own namespace.
func (t *Task) Get(ctx context.Context, name string, out any) error {
	return t.artifacts.Get(ctx, t.id, name, out)
}

// Input returns read access to the predecessor task's artifacts. It is nil
// for the root step. Join steps receive their inputs, one per branch, as an
// argument instead.
func (t *Task) Input() *BranchInput {
	return t.input
}

// Logger returns the run logger.
func (t *Task) Logger() hclog.Logger {
	return t.log
}

// Profile opens a profiling scope labelled label, wired to the run logger
// and the shared stats collection. Callers must close it with End; see
// profile.Do for the guarded form.
func (t *Task) Profile(label string) *profile.Scope {
	return profile.Start(t.log, label, t.stats)
}

// ProfileDo runs fn inside a profiling scope that is closed on every exit
// path.
func (t *Task) ProfileDo(label string, fn func() error) error {
	return profile.Do(t.log, label, t.stats, fn)
}

// BranchInput is read access to the artifacts of one completed predecessor
// task. A join step receives one BranchInput per incoming branch, ordered by
// branch declaration.
type BranchInput struct {
	step string
	task *Task
}

// StepName returns the name of the predecessor step.
func (b *BranchInput) StepName() string { return b.step }

// TaskID returns the identifier of the predecessor task.
func (b *BranchInput) TaskID() string { return b.task.id }

// Get loads a named artifact written by the predecessor task.
func (b *BranchInput) Get(ctx context.Context, name string, out any) error {
	return b.task.artifacts.Get(ctx, b.task.id, name, out)
}

// Names returns the artifact names written by the predecessor task.
func (b *BranchInput) Names() []string {
	return b.task.artifacts.Names(b.task.id)
}
