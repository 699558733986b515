package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-stepflow/pkg/flow/backend"
	"github.com/askiada/go-stepflow/pkg/flow/model"
	"github.com/askiada/go-stepflow/pkg/flow/profile"
)

// Runner walks a flow graph and executes its steps in dependency order.
// Backends are injected at construction; the defaults run everything
// locally and in memory.
type Runner struct {
	fl *Flow

	log   hclog.Logger
	meta  backend.Metadata
	env   backend.Environment
	ds    backend.Datastore
	stats profile.Stats

	artifacts     *ArtifactStore
	maxConcurrent int
}

// RunnerOption configures a runner.
type RunnerOption func(r *Runner)

// WithLogger sets the run logger. It receives the PROFILE lines.
func WithLogger(log hclog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithMetadata sets the metadata backend receiving task transitions.
func WithMetadata(meta backend.Metadata) RunnerOption {
	return func(r *Runner) { r.meta = meta }
}

// WithDatastore sets the datastore backend persisting artifacts.
func WithDatastore(ds backend.Datastore) RunnerOption {
	return func(r *Runner) { r.ds = ds }
}

// WithEnvironment sets the environment backend preparing task execution.
func WithEnvironment(env backend.Environment) RunnerOption {
	return func(r *Runner) { r.env = env }
}

// WithStats sets the shared stats collection receiving profile scopes.
func WithStats(stats profile.Stats) RunnerOption {
	return func(r *Runner) { r.stats = stats }
}

// WithMaxConcurrent caps the number of tasks running at once. Zero (the
// default) means no cap.
func WithMaxConcurrent(limit int) RunnerOption {
	return func(r *Runner) { r.maxConcurrent = limit }
}

// NewRunner creates a runner for the flow.
func NewRunner(fl *Flow, opts ...RunnerOption) (*Runner, error) {
	if fl == nil {
		return nil, ErrFlowMustBeSet
	}

	r := &Runner{
		fl:    fl,
		log:   hclog.NewNullLogger(),
		meta:  backend.NewLocalMetadata(),
		env:   backend.NewLocalEnvironment(),
		ds:    backend.NewLocalDatastore(),
		stats: profile.NewDefaultStats(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.artifacts = NewArtifactStore(r.ds)

	return r, nil
}

// Close releases the datastore backend. Artifacts of finished runs are
// retained until then, including those of tasks abandoned after a sibling
// failure.
func (r *Runner) Close() error {
	return r.ds.Close()
}

// Stats returns the shared stats collection of the runner.
func (r *Runner) Stats() profile.Stats {
	return r.stats
}

// Artifacts returns the artifact store of the runner.
func (r *Runner) Artifacts() *ArtifactStore {
	return r.artifacts
}

type taskResult struct {
	step    *model.Step
	task    *Task
	elapsed time.Duration
	err     *TaskError
}

// Run validates the flow, seals it and executes it to completion or
// failure. Branch tasks of a fanout run concurrently without ordering
// guarantees; a join runs only once every branch task has succeeded. The
// first task failure marks the run failed: siblings already running finish
// best-effort, but nothing new is scheduled and no partial join is ever
// admitted.
func (r *Runner) Run(ctx context.Context) (*Run, error) {
	err := r.fl.Validate()
	if err != nil {
		return nil, err
	}
	r.fl.seal()

	joins := NewJoinCoordinator()
	for name, step := range r.fl.steps {
		if step.Info.Kind == model.JoinStepKind {
			joins.Declare(name, r.fl.predecessors[name])
		}
	}

	run := newRun(uuid.NewString(), r.fl.name)
	run.joins = joins
	run.start()

	// The channel holds one result per step, so task goroutines never
	// block on it even when the scheduler is busy dispatching.
	results := make(chan taskResult, len(r.fl.steps))

	grp := &errgroup.Group{}
	if r.maxConcurrent > 0 {
		grp.SetLimit(r.maxConcurrent)
	}

	outstanding := 0
	dispatch := func(step *model.Step, input *BranchInput, inputs []*BranchInput) {
		outstanding++
		grp.Go(func() error {
			r.execTask(ctx, run, step, input, inputs, results)

			return nil
		})
	}

	dispatch(r.fl.steps[r.fl.root], nil, nil)

	var failed bool
	var hookErr error

	for outstanding > 0 {
		res := <-results
		outstanding--

		for _, opt := range r.fl.opts {
			if err := opt.OnTaskEnd(res.step.Info, res.task.id, res.task.Status(), res.elapsed); err != nil && hookErr == nil {
				hookErr = errors.Wrap(err, "unable to run task end hook")
			}
		}

		if res.err != nil {
			run.fail(res.err)
			failed = true

			continue
		}

		if failed {
			// Best-effort: completed siblings are recorded but admit
			// nothing downstream.
			continue
		}

		if err := r.scheduleSuccessors(run, joins, res, dispatch); err != nil && hookErr == nil {
			hookErr = err
		}
	}

	_ = grp.Wait()

	run.finish()

	for _, opt := range r.fl.opts {
		if err := opt.Finish(); err != nil && hookErr == nil {
			hookErr = errors.Wrap(err, "unable to finish flow option")
		}
	}

	if err := run.Err(); err != nil {
		return run, err
	}

	return run, hookErr
}

func (r *Runner) scheduleSuccessors(run *Run, joins *JoinCoordinator, res taskResult, dispatch func(*model.Step, *BranchInput, []*BranchInput)) error {
	stepName := res.step.Info.Name

	for _, succName := range r.fl.successors[stepName] {
		succ := r.fl.steps[succName]
		input := &BranchInput{step: stepName, task: res.task}

		if succ.Info.Kind != model.JoinStepKind {
			dispatch(succ, input, nil)

			continue
		}

		err := joins.RegisterCompletion(succName, stepName, input)
		if err != nil {
			return errors.Wrap(err, "unable to register branch completion")
		}

		inputs, err := joins.TryAdmit(succName)
		if errors.Is(err, ErrJoinNotReady) {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "unable to admit join")
		}

		dispatch(succ, nil, inputs)
	}

	return nil
}

func (r *Runner) execTask(ctx context.Context, run *Run, step *model.Step, input *BranchInput, inputs []*BranchInput, results chan<- taskResult) {
	task := newTask(run.id, step.Info, r.artifacts, input, r.stats, r.log)
	run.addTask(step.Info.Name, task)

	report := func(status model.TaskStatus) {
		task.setStatus(status)
		if err := r.meta.RegisterTask(ctx, run.id, step.Info.Name, task.id, status); err != nil {
			r.log.Warn("unable to register task transition", "step", step.Info.Name, "task", task.id, "error", err)
		}
	}

	report(model.TaskPending)

	start := time.Now()

	fail := func(err error) {
		report(model.TaskFailed)
		results <- taskResult{
			step:    step,
			task:    task,
			elapsed: time.Since(start),
			err:     &TaskError{RunID: run.id, Step: step.Info.Name, TaskID: task.id, Err: err},
		}
	}

	err := r.env.Prepare(ctx, run.id, step.Info)
	if err != nil {
		fail(errors.Wrap(err, "unable to prepare environment"))

		return
	}

	report(model.TaskRunning)

	bodyCtx := ctx
	if step.Info.Timeout > 0 {
		var cancel context.CancelFunc
		bodyCtx, cancel = context.WithTimeout(ctx, step.Info.Timeout)
		defer cancel()
	}

	if step.Info.Kind == model.JoinStepKind {
		err = r.fl.joinBodies[step.Info.Name](bodyCtx, task, inputs)
	} else {
		err = r.fl.bodies[step.Info.Name](bodyCtx, task)
	}
	elapsed := time.Since(start)

	if err != nil {
		report(model.TaskFailed)
		results <- taskResult{
			step:    step,
			task:    task,
			elapsed: elapsed,
			err:     &TaskError{RunID: run.id, Step: step.Info.Name, TaskID: task.id, Err: err},
		}

		return
	}

	report(model.TaskSucceeded)
	results <- taskResult{step: step, task: task, elapsed: elapsed}
}
