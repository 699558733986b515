package flow

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/pkg/flow/backend"
)

// ArtifactStore persists named values produced by tasks. Artifacts are
// write-once and bound to exactly one task; persistence is delegated to a
// datastore backend, values are serialized on the way through. The
// write-once index lives here so the semantics hold whatever the backend.
type ArtifactStore struct {
	mu    sync.RWMutex
	names map[string]map[string]struct{} // taskID -> artifact names
	ds    backend.Datastore
}

// NewArtifactStore creates an artifact store backed by ds.
func NewArtifactStore(ds backend.Datastore) *ArtifactStore {
	return &ArtifactStore{
		names: make(map[string]map[string]struct{}),
		ds:    ds,
	}
}

// Put stores a named value for a task. It fails with ErrDuplicateArtifact
// when the name was already written for that task.
func (s *ArtifactStore) Put(ctx context.Context, taskID, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "unable to serialize artifact %q", name)
	}

	s.mu.Lock()
	if _, ok := s.names[taskID][name]; ok {
		s.mu.Unlock()

		return errors.Wrapf(ErrDuplicateArtifact, "artifact %q, task %s", name, taskID)
	}
	if s.names[taskID] == nil {
		s.names[taskID] = make(map[string]struct{})
	}
	s.names[taskID][name] = struct{}{}
	s.mu.Unlock()

	err = s.ds.Store(ctx, taskID, name, data)
	if err != nil {
		return errors.Wrapf(err, "unable to persist artifact %q", name)
	}

	return nil
}

// Get loads a named value of a task into out. It fails with
// ErrArtifactNotFound when the name was never written.
func (s *ArtifactStore) Get(ctx context.Context, taskID, name string, out any) error {
	s.mu.RLock()
	_, ok := s.names[taskID][name]
	s.mu.RUnlock()

	if !ok {
		return errors.Wrapf(ErrArtifactNotFound, "artifact %q, task %s", name, taskID)
	}

	data, err := s.ds.Load(ctx, taskID, name)
	if errors.Is(err, backend.ErrNotFound) {
		return errors.Wrapf(ErrArtifactNotFound, "artifact %q, task %s", name, taskID)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to load artifact %q", name)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return errors.Wrapf(err, "unable to deserialize artifact %q", name)
	}

	return nil
}

// Names returns the artifact names written by a task.
func (s *ArtifactStore) Names(taskID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.names[taskID]))
	for name := range s.names[taskID] {
		out = append(out, name)
	}

	return out
}
