package flow

import (
	"sync"
	"time"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// Run is the set of all tasks produced by one invocation of a flow. It owns
// the mapping from step to its tasks: one task per linear, fanout or join
// step, one task per branch for the branch steps of an N-way fanout.
type Run struct {
	id       string
	flowName string

	mu       sync.RWMutex
	status   model.RunStatus
	tasks    map[string][]*Task
	failure  *TaskError
	started  time.Time
	finished time.Time

	joins *JoinCoordinator
}

// Joins returns the join coordinator of the run. A join that lost a
// predecessor to a failure stays not-ready forever.
func (r *Run) Joins() *JoinCoordinator {
	return r.joins
}

func newRun(id, flowName string) *Run {
	return &Run{
		id:       id,
		flowName: flowName,
		status:   model.RunNotStarted,
		tasks:    make(map[string][]*Task),
	}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// FlowName returns the name of the flow that produced the run.
func (r *Run) FlowName() string { return r.flowName }

// Status returns the current run status.
func (r *Run) Status() model.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.status
}

// Err returns the failure of the run, identifying the originating step and
// task. It is nil unless the run failed.
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failure == nil {
		return nil
	}

	return r.failure
}

// Tasks returns every task created for the step, in creation order.
func (r *Run) Tasks(step string) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Task, len(r.tasks[step]))
	copy(out, r.tasks[step])

	return out
}

// Task returns the first task of the step, or nil when the step never ran.
func (r *Run) Task(step string) *Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.tasks[step]) == 0 {
		return nil
	}

	return r.tasks[step][0]
}

// Elapsed returns the wall-clock duration of the run.
func (r *Run) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.finished.IsZero() {
		return time.Since(r.started)
	}

	return r.finished.Sub(r.started)
}

func (r *Run) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = model.RunRunning
	r.started = time.Now()
}

func (r *Run) addTask(step string, task *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[step] = append(r.tasks[step], task)
}

func (r *Run) fail(failure *TaskError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Only the first failure identifies the run; later sibling failures
	// are recorded against their own tasks.
	if r.failure == nil {
		r.failure = failure
	}
	r.status = model.RunFailed
}

func (r *Run) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finished = time.Now()
	if r.status == model.RunRunning {
		r.status = model.RunSucceeded
	}
}
