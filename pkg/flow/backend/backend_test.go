package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/pkg/flow/backend"
	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func TestLocalMetadataRecords(t *testing.T) {
	t.Parallel()

	meta := backend.NewLocalMetadata()
	ctx := context.Background()

	require.NoError(t, meta.RegisterTask(ctx, "run-1", "train", "task-1", model.TaskPending))
	require.NoError(t, meta.RegisterTask(ctx, "run-1", "train", "task-1", model.TaskRunning))
	require.NoError(t, meta.RegisterTask(ctx, "run-1", "train", "task-1", model.TaskSucceeded))

	records := meta.Records()
	require.Len(t, records, 3)
	assert.Equal(t, model.TaskPending, records[0].Status)
	assert.Equal(t, model.TaskSucceeded, records[2].Status)
	assert.Equal(t, "train", records[1].StepName)
}

func TestServiceMetadataPosts(t *testing.T) {
	t.Parallel()

	var got backend.TaskRecord

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	meta := backend.NewServiceMetadata(server.URL, server.Client())

	err := meta.RegisterTask(context.Background(), "run-1", "train", "task-1", model.TaskRunning)
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "train", got.StepName)
	assert.Equal(t, model.TaskRunning, got.Status)
}

func TestServiceMetadataErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	meta := backend.NewServiceMetadata(server.URL, server.Client())

	err := meta.RegisterTask(context.Background(), "run-1", "train", "task-1", model.TaskRunning)
	assert.Error(t, err)
}

func TestLocalDatastoreRoundTrip(t *testing.T) {
	t.Parallel()

	ds := backend.NewLocalDatastore()
	ctx := context.Background()

	require.NoError(t, ds.Store(ctx, "task-1", "weights", []byte("abc")))

	data, err := ds.Load(ctx, "task-1", "weights")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ds.Load(ctx, "task-1", "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	assert.NoError(t, ds.Close())
}

func TestBadgerDatastoreRoundTrip(t *testing.T) {
	t.Parallel()

	ds, err := backend.NewBadgerDatastore(t.TempDir())
	require.NoError(t, err)
	defer func() { assert.NoError(t, ds.Close()) }()

	ctx := context.Background()

	require.NoError(t, ds.Store(ctx, "task-1", "weights", []byte("abc")))

	data, err := ds.Load(ctx, "task-1", "weights")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ds.Load(ctx, "task-2", "weights")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
