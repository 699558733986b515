package flow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/pkg/flow/backend"
	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func branchInput(t *testing.T, step string) *BranchInput {
	t.Helper()

	artifacts := NewArtifactStore(backend.NewLocalDatastore())
	task := newTask("run", &model.StepInfo{Kind: model.LinearStepKind, Name: step}, artifacts, nil, nil, nil)

	return &BranchInput{step: step, task: task}
}

func TestJoinCoordinatorNotReady(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b", "c"})

	_, err := joins.TryAdmit("gather")
	assert.ErrorIs(t, err, ErrJoinNotReady)

	require.NoError(t, joins.RegisterCompletion("gather", "b", branchInput(t, "b")))

	_, err = joins.TryAdmit("gather")
	assert.ErrorIs(t, err, ErrJoinNotReady)
}

func TestJoinCoordinatorOrdered(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b", "c"})

	// Branches complete in reverse order.
	for _, name := range []string{"c", "b", "a"} {
		require.NoError(t, joins.RegisterCompletion("gather", name, branchInput(t, name)))
	}

	inputs, err := joins.TryAdmit("gather")
	require.NoError(t, err)
	require.Len(t, inputs, 3)

	// Collected inputs come back in declaration order.
	assert.Equal(t, "a", inputs[0].StepName())
	assert.Equal(t, "b", inputs[1].StepName())
	assert.Equal(t, "c", inputs[2].StepName())
}

func TestJoinCoordinatorConcurrentCompletions(t *testing.T) {
	t.Parallel()

	branches := []string{"b0", "b1", "b2", "b3", "b4", "b5", "b6", "b7"}

	joins := NewJoinCoordinator()
	joins.Declare("gather", branches)

	wgrp := sync.WaitGroup{}
	wgrp.Add(len(branches))

	for _, name := range branches {
		localName := name
		go func() {
			defer wgrp.Done()
			assert.NoError(t, joins.RegisterCompletion("gather", localName, branchInput(t, localName)))
		}()
	}
	wgrp.Wait()

	inputs, err := joins.TryAdmit("gather")
	require.NoError(t, err)
	require.Len(t, inputs, len(branches))

	for i, input := range inputs {
		assert.Equal(t, branches[i], input.StepName())
	}
}

func TestJoinCoordinatorDuplicateBranch(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b"})

	require.NoError(t, joins.RegisterCompletion("gather", "a", branchInput(t, "a")))

	err := joins.RegisterCompletion("gather", "a", branchInput(t, "a"))
	assert.ErrorIs(t, err, ErrDuplicateBranch)
}

func TestJoinCoordinatorUnknownBranch(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b"})

	err := joins.RegisterCompletion("gather", "x", branchInput(t, "x"))
	assert.ErrorIs(t, err, ErrUnknownBranch)
}

func TestJoinCoordinatorUnknownJoin(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()

	_, err := joins.TryAdmit("gather")
	assert.ErrorIs(t, err, ErrUnknownJoin)

	err = joins.RegisterCompletion("gather", "a", branchInput(t, "a"))
	assert.ErrorIs(t, err, ErrUnknownJoin)
}

func TestJoinCoordinatorWait(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = joins.RegisterCompletion("gather", "a", branchInput(t, "a"))
		time.Sleep(10 * time.Millisecond)
		_ = joins.RegisterCompletion("gather", "b", branchInput(t, "b"))
	}()

	inputs, err := joins.Wait(context.Background(), "gather")
	require.NoError(t, err)
	assert.Len(t, inputs, 2)
}

func TestJoinCoordinatorWaitCancelled(t *testing.T) {
	t.Parallel()

	joins := NewJoinCoordinator()
	joins.Declare("gather", []string{"a", "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := joins.Wait(ctx, "gather")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
