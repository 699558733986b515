package store_test

import (
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stepflow/internal/store"
	"github.com/askiada/go-stepflow/pkg/flow/model"
)

func step(name string) *model.Step {
	return &model.Step{Info: &model.StepInfo{Kind: model.LinearStepKind, Name: name}}
}

func TestFlowStoreVertices(t *testing.T) {
	t.Parallel()

	s := store.New()

	require.NoError(t, s.AddVertex("a", step("a"), graph.VertexProperties{}))

	err := s.AddVertex("a", step("a"), graph.VertexProperties{})
	assert.ErrorIs(t, err, graph.ErrVertexAlreadyExists)

	got, _, err := s.Vertex("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Info.Name)

	_, _, err = s.Vertex("missing")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)

	count, err := s.VertexCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFlowStoreEdges(t *testing.T) {
	t.Parallel()

	s := store.New()
	require.NoError(t, s.AddVertex("a", step("a"), graph.VertexProperties{}))
	require.NoError(t, s.AddVertex("b", step("b"), graph.VertexProperties{}))

	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))

	edge, err := s.Edge("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "b", edge.Target)

	_, err = s.Edge("b", "a")
	assert.ErrorIs(t, err, graph.ErrEdgeNotFound)

	edges, err := s.ListEdges()
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestFlowStoreCreatesCycle(t *testing.T) {
	t.Parallel()

	s := store.New()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddVertex(name, step(name), graph.VertexProperties{}))
	}
	require.NoError(t, s.AddEdge("a", "b", graph.Edge[string]{Source: "a", Target: "b"}))
	require.NoError(t, s.AddEdge("b", "c", graph.Edge[string]{Source: "b", Target: "c"}))

	// Closing the chain back to its head would cycle.
	cycles, err := s.CreatesCycle("c", "a")
	require.NoError(t, err)
	assert.True(t, cycles)

	cycles, err = s.CreatesCycle("a", "c")
	require.NoError(t, err)
	assert.False(t, cycles)

	cycles, err = s.CreatesCycle("a", "a")
	require.NoError(t, err)
	assert.True(t, cycles)
}
