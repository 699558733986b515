package flow

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// Step is a handle on a step of a flow graph.
type Step = model.Step

// StepFn is the body of a linear or fanout step. It runs inside one task and
// reads and writes artifacts through it.
type StepFn func(ctx context.Context, task *Task) error

// JoinFn is the body of a join step. It receives one input per predecessor
// branch, in branch declaration order. Inputs are never merged into a single
// namespace, the join iterates them explicitly.
type JoinFn func(ctx context.Context, task *Task, inputs []*BranchInput) error

// StepOption configures a step at definition time.
type StepOption func(info *model.StepInfo)

// StepTimeout bounds the execution of each task of the step. Zero (the
// default) means no timeout.
func StepTimeout(timeout time.Duration) StepOption {
	return func(info *model.StepInfo) {
		info.Timeout = timeout
	}
}

// StepResources attaches resource hints to the step. The scheduler ignores
// them, environment backends may not.
func StepResources(cpu, memoryMB int) StepOption {
	return func(info *model.StepInfo) {
		info.CPU = cpu
		info.MemoryMB = memoryMB
	}
}

func newStep(kind model.StepKind, name string, opts ...StepOption) *model.Step {
	info := &model.StepInfo{
		Kind: kind,
		Name: name,
	}
	for _, opt := range opts {
		opt(info)
	}

	return &model.Step{Info: info}
}

func prepareStep(fl *Flow, parent, step *model.Step) error {
	var parentInfo *model.StepInfo
	if parent != nil {
		parentInfo = parent.Info
	}

	for _, opt := range fl.opts {
		err := opt.PrepareStep(parentInfo, step.Info)
		if err != nil {
			return errors.Wrap(err, "unable to prepare step")
		}
	}

	return nil
}

// AddRootStep adds the start step of the flow.
func AddRootStep(fl *Flow, name string, fn StepFn, opts ...StepOption) (*model.Step, error) {
	if fl == nil {
		return nil, ErrFlowMustBeSet
	}
	if fn == nil {
		return nil, ErrStepBodyMustBeSet
	}
	if fl.root != "" {
		return nil, newGraphError(name, "root step already set to "+fl.root)
	}

	step := newStep(model.LinearStepKind, name, opts...)

	err := fl.addStep(step, fn, nil)
	if err != nil {
		return nil, err
	}
	fl.root = name

	err = prepareStep(fl, nil, step)
	if err != nil {
		return nil, err
	}

	return step, nil
}

// AddStep adds a linear step after input. When input is a fanout step, the
// new step becomes the head of one of its branches.
func AddStep(fl *Flow, name string, input *model.Step, fn StepFn, opts ...StepOption) (*model.Step, error) {
	if fl == nil {
		return nil, ErrFlowMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	if fn == nil {
		return nil, ErrStepBodyMustBeSet
	}

	step := newStep(model.LinearStepKind, name, opts...)

	err := fl.addStep(step, fn, nil)
	if err != nil {
		return nil, err
	}

	err = fl.addLink(input.Info.Name, name)
	if err != nil {
		return nil, err
	}

	err = prepareStep(fl, input, step)
	if err != nil {
		return nil, err
	}

	return step, nil
}

// AddFanout adds a fanout step after input. Its body runs as a regular task,
// then every branch added after it with AddStep runs as an independent task,
// concurrently with its siblings and without ordering guarantees.
func AddFanout(fl *Flow, name string, input *model.Step, fn StepFn, opts ...StepOption) (*model.Step, error) {
	if fl == nil {
		return nil, ErrFlowMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	if fn == nil {
		return nil, ErrStepBodyMustBeSet
	}

	step := newStep(model.FanoutStepKind, name, opts...)

	err := fl.addStep(step, fn, nil)
	if err != nil {
		return nil, err
	}

	err = fl.addLink(input.Info.Name, name)
	if err != nil {
		return nil, err
	}

	err = prepareStep(fl, input, step)
	if err != nil {
		return nil, err
	}

	return step, nil
}

// AddJoin adds a join step collecting the given branch steps. The join body
// receives one input per branch, in the order they are declared here. It
// only runs once every branch task has succeeded.
func AddJoin(fl *Flow, name string, inputs []*model.Step, fn JoinFn, opts ...StepOption) (*model.Step, error) {
	if fl == nil {
		return nil, ErrFlowMustBeSet
	}
	if len(inputs) == 0 {
		return nil, ErrInputMustBeSet
	}
	if fn == nil {
		return nil, ErrStepBodyMustBeSet
	}

	step := newStep(model.JoinStepKind, name, opts...)

	err := fl.addStep(step, nil, fn)
	if err != nil {
		return nil, err
	}

	parents := make([]*model.StepInfo, 0, len(inputs))
	for _, input := range inputs {
		if input == nil {
			return nil, ErrInputMustBeSet
		}

		err = fl.addLink(input.Info.Name, name)
		if err != nil {
			return nil, err
		}
		parents = append(parents, input.Info)
	}

	for _, opt := range fl.opts {
		err = opt.PrepareJoin(parents, step.Info)
		if err != nil {
			return nil, errors.Wrap(err, "unable to prepare join")
		}
	}

	return step, nil
}
