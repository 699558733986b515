package backend

import (
	"context"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// LocalEnvironment runs step bodies in the current process without any
// preparation. Environments that resolve dependencies (conda and friends)
// implement the same interface outside of this module.
type LocalEnvironment struct{}

// NewLocalEnvironment creates a local environment backend.
func NewLocalEnvironment() *LocalEnvironment {
	return &LocalEnvironment{}
}

func (e *LocalEnvironment) Prepare(_ context.Context, _ string, _ *model.StepInfo) error {
	return nil
}

var _ Environment = (*LocalEnvironment)(nil)
