package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func nopBody(_ context.Context, _ *Task) error {
	return nil
}

func TestAddLinkCycle(t *testing.T) {
	t.Parallel()

	fl, err := New("test")
	require.NoError(t, err)

	start, err := AddRootStep(fl, "start", nopBody)
	require.NoError(t, err)
	mid, err := AddStep(fl, "mid", start, nopBody)
	require.NoError(t, err)
	_, err = AddStep(fl, "end", mid, nopBody)
	require.NoError(t, err)

	err = fl.addLink("end", "start")

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Contains(t, graphErr.Reason, "cycle")
}

func TestValidateUnreachableStep(t *testing.T) {
	t.Parallel()

	fl, err := New("test")
	require.NoError(t, err)

	start, err := AddRootStep(fl, "start", nopBody)
	require.NoError(t, err)
	_, err = AddStep(fl, "end", start, nopBody)
	require.NoError(t, err)

	// An orphan vertex cannot be produced through the public API.
	err = fl.addStep(newStep(model.LinearStepKind, "orphan"), nopBody, nil)
	require.NoError(t, err)
	err = fl.addLink("orphan", "end")
	require.NoError(t, err)

	err = fl.Validate()

	var graphErr *GraphError
	require.ErrorAs(t, err, &graphErr)
	assert.Equal(t, "orphan", graphErr.Step)
}
