package flow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/pkg/flow"
	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "{}\n")

	cfg, err := flow.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Datastore)
	assert.Equal(t, "local", cfg.Metadata)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, ".py,.R,.RDS", cfg.PackagingSuffixes)
	assert.Zero(t, cfg.MaxConcurrent)
}

func TestLoadConfigBadger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, "datastore: badger\nbadger_dir: "+dir+"\nmax_concurrent: 4\n")

	cfg, err := flow.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Datastore)
	assert.Equal(t, dir, cfg.BadgerDir)
	assert.Equal(t, 4, cfg.MaxConcurrent)
}

func TestConfigRunnerUnknownBackend(t *testing.T) {
	t.Parallel()

	fl, err := flow.New("test")
	require.NoError(t, err)

	cfg := flow.DefaultConfig()
	cfg.Datastore = "s3"

	_, err = cfg.Runner(fl)
	assert.ErrorIs(t, err, flow.ErrUnknownDatastore)

	cfg = flow.DefaultConfig()
	cfg.Metadata = "postgres"

	_, err = cfg.Runner(fl)
	assert.ErrorIs(t, err, flow.ErrUnknownMetadata)

	cfg = flow.DefaultConfig()
	cfg.Environment = "conda"

	_, err = cfg.Runner(fl)
	assert.ErrorIs(t, err, flow.ErrUnknownEnvironment)
}

func TestConfigRunnerBadgerRun(t *testing.T) {
	t.Parallel()

	fl, err := flow.New("persisted")
	require.NoError(t, err)

	start, err := flow.AddRootStep(fl, "start", func(ctx context.Context, task *flow.Task) error {
		return task.Put(ctx, "value", "kept")
	})
	require.NoError(t, err)

	var got string

	_, err = flow.AddStep(fl, "end", start, func(ctx context.Context, task *flow.Task) error {
		return task.Input().Get(ctx, "value", &got)
	})
	require.NoError(t, err)

	cfg := flow.DefaultConfig()
	cfg.Datastore = "badger"
	cfg.BadgerDir = t.TempDir()

	runner, err := cfg.Runner(fl)
	require.NoError(t, err)
	defer func() { assert.NoError(t, runner.Close()) }()

	run, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.RunSucceeded, run.Status())
	assert.Equal(t, "kept", got)
}
