package store

import (
	"fmt"
	"sync"

	"github.com/dominikbraun/graph"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// FlowStore is an in-memory graph.Store holding the steps of a flow graph,
// keyed by step name.
type FlowStore struct {
	lock  sync.RWMutex
	steps map[string]*model.Step
	props map[string]*graph.VertexProperties

	// outEdges and inEdges store all outgoing and ingoing edges for all
	// steps. For O(1) access, these edges themselves are stored in maps
	// whose keys are the names of the target steps.
	outEdges map[string]map[string]graph.Edge[string] // source -> target
	inEdges  map[string]map[string]graph.Edge[string] // target -> source
}

// New creates an empty FlowStore.
func New() *FlowStore {
	return &FlowStore{
		steps:    make(map[string]*model.Step),
		props:    make(map[string]*graph.VertexProperties),
		outEdges: make(map[string]map[string]graph.Edge[string]),
		inEdges:  make(map[string]map[string]graph.Edge[string]),
	}
}

func (s *FlowStore) AddVertex(name string, step *model.Step, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.steps[name]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.steps[name] = step
	s.props[name] = &p

	return nil
}

func (s *FlowStore) ListVertices() ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	names := make([]string, 0, len(s.steps))
	for name := range s.steps {
		names = append(names, name)
	}

	return names, nil
}

func (s *FlowStore) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.steps), nil
}

func (s *FlowStore) Vertex(name string) (*model.Step, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	step, ok := s.steps[name]
	if !ok {
		return nil, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return step, *s.props[name], nil
}

func (s *FlowStore) RemoveVertex(name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.steps[name]; !ok {
		return graph.ErrVertexNotFound
	}

	if edges, ok := s.inEdges[name]; ok {
		if len(edges) > 0 {
			return graph.ErrVertexHasEdges
		}
		delete(s.inEdges, name)
	}

	if edges, ok := s.outEdges[name]; ok {
		if len(edges) > 0 {
			return graph.ErrVertexHasEdges
		}
		delete(s.outEdges, name)
	}

	delete(s.steps, name)
	delete(s.props, name)

	return nil
}

func (s *FlowStore) AddEdge(sourceName, targetName string, edge graph.Edge[string]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[sourceName]; !ok {
		s.outEdges[sourceName] = make(map[string]graph.Edge[string])
	}

	s.outEdges[sourceName][targetName] = edge

	if _, ok := s.inEdges[targetName]; !ok {
		s.inEdges[targetName] = make(map[string]graph.Edge[string])
	}

	s.inEdges[targetName][sourceName] = edge

	return nil
}

func (s *FlowStore) UpdateEdge(sourceName, targetName string, edge graph.Edge[string]) error {
	if _, err := s.Edge(sourceName, targetName); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.outEdges[sourceName][targetName] = edge
	s.inEdges[targetName][sourceName] = edge

	return nil
}

func (s *FlowStore) RemoveEdge(sourceName, targetName string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[targetName], sourceName)
	delete(s.outEdges[sourceName], targetName)

	return nil
}

func (s *FlowStore) Edge(sourceName, targetName string) (graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sourceEdges, ok := s.outEdges[sourceName]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	edge, ok := sourceEdges[targetName]
	if !ok {
		return graph.Edge[string]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *FlowStore) ListEdges() ([]graph.Edge[string], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[string], 0)
	for _, edges := range s.outEdges {
		for _, edge := range edges {
			res = append(res, edge)
		}
	}

	return res, nil
}

// CreatesCycle reports whether an edge from source to target would introduce
// a cycle. It walks inEdges directly instead of going through
// [graph.PredecessorMap], which generates large amounts of garbage to
// collect for nothing.
func (s *FlowStore) CreatesCycle(source, target string) (bool, error) {
	if _, _, err := s.Vertex(source); err != nil {
		return false, fmt.Errorf("could not get step %q: %w", source, err)
	}

	if _, _, err := s.Vertex(target); err != nil {
		return false, fmt.Errorf("could not get step %q: %w", target, err)
	}

	if source == target {
		return true, nil
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	stack := []string{source}
	visited := make(map[string]struct{})

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[current]; ok {
			continue
		}

		// If the current step is the target, the target is upstream of
		// the source. The edge would introduce a cycle.
		if current == target {
			return true, nil
		}

		visited[current] = struct{}{}

		for adjacency := range s.inEdges[current] {
			stack = append(stack, adjacency)
		}
	}

	return false, nil
}

var _ graph.Store[string, *model.Step] = (*FlowStore)(nil)
