package drawer

import (
	"github.com/askiada/go-stepflow/pkg/flow/model"
	"github.com/askiada/go-stepflow/pkg/flow/profile"
)

// Drawer is an interface that defines the methods for drawing a flow graph.
type Drawer interface {
	// AddStep adds a step to the flow drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and child steps.
	AddLink(parentStepName, childStepName string) error
	// SetStatus records the final task status of a step.
	SetStatus(stepName string, status model.TaskStatus) error
	// AddStats annotates steps with the recorded timings.
	AddStats(stats profile.Stats) error
	// Draw creates a file with the flow graph.
	Draw() error
}
