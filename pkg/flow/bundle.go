package flow

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/internal/packaging"
)

// BundleArtifact is the artifact name written by BundleStep.
const BundleArtifact = "bundle"

// BundleStep returns a step body that selects every file under root whose
// suffix matches one entry of the comma-separated patterns list (default
// ".py,.R,.RDS") and stores the selection as the "bundle" artifact.
func BundleStep(root, patterns string) StepFn {
	return func(ctx context.Context, task *Task) error {
		selector, err := packaging.NewSelector(patterns)
		if err != nil {
			return errors.Wrap(err, "unable to build bundle selector")
		}

		files, err := selector.Select(root)
		if err != nil {
			return errors.Wrap(err, "unable to select bundle files")
		}

		return task.Put(ctx, BundleArtifact, files)
	}
}
