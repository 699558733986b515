package profile

import (
	"time"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

type flowProfile struct {
	stats Stats
}

func (fp *flowProfile) New() error {
	return nil
}

func (fp *flowProfile) PrepareStep(parent, step *model.StepInfo) error {
	return nil
}

func (fp *flowProfile) PrepareJoin(parents []*model.StepInfo, join *model.StepInfo) error {
	return nil
}

func (fp *flowProfile) OnTaskEnd(step *model.StepInfo, taskID string, status model.TaskStatus, elapsed time.Duration) error {
	fp.stats.Merge(step.Name, elapsed)

	return nil
}

func (fp *flowProfile) Finish() error {
	return nil
}

// FlowProfile returns a flow option that records the runtime of every task
// into the stats collection, keyed by step name. Branch tasks of a fanout
// contribute concurrently, the collection keeps every entry.
func FlowProfile(stats Stats) model.FlowOption {
	return &flowProfile{stats: stats}
}
