package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billing-audit/internal/models"
)

// MockRunRepository feeds pending runs to the worker under test.
type MockRunRepository struct {
	mu               sync.Mutex
	pending          []*models.AuditRun
	getCallCount     int
	lastLimit        int
	expectedGetError error
}

func NewMockRunRepository(runs ...*models.AuditRun) *MockRunRepository {
	return &MockRunRepository{pending: runs}
}

func (m *MockRunRepository) GetPendingRuns(limit int) ([]*models.AuditRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCallCount++
	m.lastLimit = limit

	if m.expectedGetError != nil {
		return nil, m.expectedGetError
	}

	n := limit
	if n > len(m.pending) {
		n = len(m.pending)
	}
	batch := m.pending[:n]
	m.pending = m.pending[n:]
	return batch, nil
}

// MockRunExecutor records executed run IDs and fails the configured ones.
type MockRunExecutor struct {
	mu       sync.Mutex
	executed []string
	failOn   map[string]error
}

func NewMockRunExecutor() *MockRunExecutor {
	return &MockRunExecutor{failOn: make(map[string]error)}
}

func (m *MockRunExecutor) Execute(ctx context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, runID)
	return m.failOn[runID]
}

func (m *MockRunExecutor) executedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.executed...)
}

func pendingRun(id string) *models.AuditRun {
	return &models.AuditRun{
		ID:       id,
		FileName: id + ".pdf",
		Status:   models.RunStatusPending,
	}
}

func TestAuditWorker_ProcessNow(t *testing.T) {
	repo := NewMockRunRepository(pendingRun("run-1"), pendingRun("run-2"))
	executor := NewMockRunExecutor()
	w := NewAuditWorker(repo, executor, zap.NewNop())

	require.NoError(t, w.ProcessNow())

	assert.Equal(t, []string{"run-1", "run-2"}, executor.executedIDs())

	status := w.GetStatus()
	assert.Equal(t, 2, status.ProcessedCount)
	assert.Zero(t, status.FailedCount)
	assert.False(t, status.IsRunning)
}

func TestAuditWorker_CountsFailures(t *testing.T) {
	repo := NewMockRunRepository(pendingRun("run-ok"), pendingRun("run-bad"))
	executor := NewMockRunExecutor()
	executor.failOn["run-bad"] = fmt.Errorf("bill file not found: x.pdf")
	w := NewAuditWorker(repo, executor, zap.NewNop())

	require.NoError(t, w.ProcessNow(), "run failures never abort the batch")

	status := w.GetStatus()
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Equal(t, 1, status.FailedCount)
	assert.Contains(t, status.LastError, "bill file not found")
}

func TestAuditWorker_RespectsBatchSize(t *testing.T) {
	repo := NewMockRunRepository(pendingRun("run-1"), pendingRun("run-2"), pendingRun("run-3"))
	executor := NewMockRunExecutor()
	w := NewAuditWorker(repo, executor, zap.NewNop())
	w.SetBatchSize(2)

	require.NoError(t, w.ProcessNow())

	repo.mu.Lock()
	lastLimit := repo.lastLimit
	repo.mu.Unlock()
	assert.Equal(t, 2, lastLimit)
	assert.Len(t, executor.executedIDs(), 2)

	require.NoError(t, w.ProcessNow())
	assert.Len(t, executor.executedIDs(), 3)
}

func TestAuditWorker_FetchErrorSurfaces(t *testing.T) {
	repo := NewMockRunRepository()
	repo.expectedGetError = fmt.Errorf("database is locked")
	w := NewAuditWorker(repo, NewMockRunExecutor(), zap.NewNop())

	err := w.ProcessNow()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch pending runs")
}

func TestAuditWorker_StartStopLifecycle(t *testing.T) {
	repo := NewMockRunRepository(pendingRun("run-1"))
	executor := NewMockRunExecutor()
	w := NewAuditWorker(repo, executor, zap.NewNop())
	w.SetPollInterval(10 * time.Millisecond)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	err := w.Start(context.Background())
	require.Error(t, err, "double start must fail")
	assert.Contains(t, err.Error(), "already running")

	assert.Eventually(t, func() bool {
		return len(executor.executedIDs()) == 1
	}, time.Second, 10*time.Millisecond, "poll loop picks up the pending run")

	assert.True(t, w.GetStatus().IsRunning)
	w.Stop()
	assert.False(t, w.GetStatus().IsRunning)

	w.Stop()
}

func TestAuditWorker_StatusHealth(t *testing.T) {
	w := NewAuditWorker(NewMockRunRepository(), NewMockRunExecutor(), zap.NewNop())

	status := w.GetStatus()
	assert.False(t, status.IsHealthy, "stopped worker is unhealthy")

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	assert.True(t, w.GetStatus().IsHealthy)
}
