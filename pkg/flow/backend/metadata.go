package backend

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/askiada/go-stepflow/pkg/flow/model"
)

// TaskRecord is one recorded task state transition.
type TaskRecord struct {
	RunID    string           `json:"run_id"`
	StepName string           `json:"step_name"`
	TaskID   string           `json:"task_id"`
	Status   model.TaskStatus `json:"status"`
	At       time.Time        `json:"at"`
}

// LocalMetadata keeps task transitions in memory.
type LocalMetadata struct {
	mu      sync.Mutex
	records []TaskRecord
}

// NewLocalMetadata creates an empty local metadata backend.
func NewLocalMetadata() *LocalMetadata {
	return &LocalMetadata{}
}

func (m *LocalMetadata) RegisterTask(_ context.Context, runID, stepName, taskID string, status model.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, TaskRecord{
		RunID:    runID,
		StepName: stepName,
		TaskID:   taskID,
		Status:   status,
		At:       time.Now(),
	})

	return nil
}

// Records returns a copy of every recorded transition.
func (m *LocalMetadata) Records() []TaskRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TaskRecord, len(m.records))
	copy(out, m.records)

	return out
}

// ServiceMetadata posts task transitions to a metadata service.
type ServiceMetadata struct {
	url    string
	client *http.Client
}

// NewServiceMetadata creates a metadata backend posting to the given URL.
// A nil client falls back to http.DefaultClient.
func NewServiceMetadata(url string, client *http.Client) *ServiceMetadata {
	if client == nil {
		client = http.DefaultClient
	}

	return &ServiceMetadata{url: url, client: client}
}

func (m *ServiceMetadata) RegisterTask(ctx context.Context, runID, stepName, taskID string, status model.TaskStatus) error {
	payload, err := json.Marshal(TaskRecord{
		RunID:    runID,
		StepName: stepName,
		TaskID:   taskID,
		Status:   status,
		At:       time.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "unable to marshal task record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "unable to build metadata request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "unable to post task record")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("metadata service returned status %d", resp.StatusCode)
	}

	return nil
}

var (
	_ Metadata = (*LocalMetadata)(nil)
	_ Metadata = (*ServiceMetadata)(nil)
)
