package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/pkg/flow/model"
	"github.com/askiada/go-stepflow/pkg/flow/profile"
)

type flowDrawer struct {
	Drawer
	stats profile.Stats
}

func (fd *flowDrawer) New() error {
	return nil
}

func (fd *flowDrawer) PrepareStep(parent, step *model.StepInfo) error {
	err := fd.AddStep(step.Name)
	if err != nil {
		return err
	}

	if parent == nil {
		return nil
	}

	return fd.AddLink(parent.Name, step.Name)
}

func (fd *flowDrawer) PrepareJoin(parents []*model.StepInfo, join *model.StepInfo) error {
	err := fd.AddStep(join.Name)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		err := fd.AddLink(parent.Name, join.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (fd *flowDrawer) OnTaskEnd(step *model.StepInfo, taskID string, status model.TaskStatus, elapsed time.Duration) error {
	return fd.SetStatus(step.Name, status)
}

func (fd *flowDrawer) Finish() error {
	if fd.stats != nil {
		err := fd.AddStats(fd.stats)
		if err != nil {
			return errors.Wrap(err, "unable to add stats")
		}
	}

	err := fd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw flow")
	}

	return nil
}

// FlowDrawer returns a flow option that draws the flow graph when the run
// finishes. A nil stats collection skips the timing annotations.
func FlowDrawer(drawer Drawer, stats profile.Stats) model.FlowOption {
	return &flowDrawer{drawer, stats}
}
