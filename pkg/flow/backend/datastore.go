package backend

import (
	"context"
	"sync"
)

// LocalDatastore keeps artifact bytes in memory.
type LocalDatastore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewLocalDatastore creates an empty local datastore.
func NewLocalDatastore() *LocalDatastore {
	return &LocalDatastore{
		values: make(map[string][]byte),
	}
}

func datastoreKey(taskID, name string) string {
	return taskID + "/" + name
}

func (d *LocalDatastore) Store(_ context.Context, taskID, name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	d.values[datastoreKey(taskID, name)] = buf

	return nil
}

func (d *LocalDatastore) Load(_ context.Context, taskID, name string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, ok := d.values[datastoreKey(taskID, name)]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (d *LocalDatastore) Close() error {
	return nil
}

var _ Datastore = (*LocalDatastore)(nil)
