package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/pkg/flow"
	"github.com/askiada/go-stepflow/pkg/flow/backend"
)

func TestArtifactStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := flow.NewArtifactStore(backend.NewLocalDatastore())
	ctx := context.Background()

	type metrics struct {
		Accuracy float64 `json:"accuracy"`
		Rows     int     `json:"rows"`
	}

	require.NoError(t, store.Put(ctx, "task-1", "metrics", metrics{Accuracy: 0.92, Rows: 1200}))

	var got metrics
	require.NoError(t, store.Get(ctx, "task-1", "metrics", &got))
	assert.Equal(t, metrics{Accuracy: 0.92, Rows: 1200}, got)

	assert.Equal(t, []string{"metrics"}, store.Names("task-1"))
}

func TestArtifactStoreWriteOnce(t *testing.T) {
	t.Parallel()

	store := flow.NewArtifactStore(backend.NewLocalDatastore())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "task-1", "value", 1))

	err := store.Put(ctx, "task-1", "value", 2)
	assert.ErrorIs(t, err, flow.ErrDuplicateArtifact)

	// The first write survives.
	var got int
	require.NoError(t, store.Get(ctx, "task-1", "value", &got))
	assert.Equal(t, 1, got)

	// Same name on another task is fine: namespaces are per task.
	assert.NoError(t, store.Put(ctx, "task-2", "value", 2))
}

func TestArtifactStoreNotFound(t *testing.T) {
	t.Parallel()

	store := flow.NewArtifactStore(backend.NewLocalDatastore())

	var got int
	err := store.Get(context.Background(), "task-1", "missing", &got)
	assert.ErrorIs(t, err, flow.ErrArtifactNotFound)
}
