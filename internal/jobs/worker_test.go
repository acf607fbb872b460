package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/odclabs/kiosk/internal/service"
)

// MockTask is a mock implementation of Task
type MockTask struct {
	mock.Mock
}

func (m *MockTask) Run(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRebuilder is a mock implementation of IndexRebuilder
type MockRebuilder struct {
	mock.Mock
}

func (m *MockRebuilder) Rebuild(ctx context.Context) (*service.RebuildResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RebuildResult), args.Error(1)
}

// MockSyncer is a mock implementation of CorpusSyncer
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) SyncCorpus(ctx context.Context, destDir string) error {
	args := m.Called(ctx, destDir)
	return args.Error(0)
}

func TestWorkerRunsTaskOnInterval(t *testing.T) {
	task := &MockTask{}
	var mu sync.Mutex
	runs := 0
	task.On("Run", mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		runs++
		mu.Unlock()
	}).Return(nil)

	w := NewWorker("test", task, 10*time.Millisecond)
	go w.Start(context.Background())

	time.Sleep(55 * time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 2)
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	task := &MockTask{}
	task.On("Run", mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWorker("test", task, time.Hour)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestWorkerKeepsRunningAfterTaskError(t *testing.T) {
	task := &MockTask{}
	var mu sync.Mutex
	runs := 0
	task.On("Run", mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		runs++
		mu.Unlock()
	}).Return(errors.New("transient failure"))

	w := NewWorker("test", task, 10*time.Millisecond)
	go w.Start(context.Background())

	time.Sleep(55 * time.Millisecond)
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, runs, 2, "one failed cycle must not stop the worker")
}

func TestRebuildTaskSyncsThenRebuilds(t *testing.T) {
	syncer := &MockSyncer{}
	syncer.On("SyncCorpus", mock.Anything, "data/corpus").Return(nil)

	rebuilder := &MockRebuilder{}
	rebuilder.On("Rebuild", mock.Anything).Return(&service.RebuildResult{Documents: 3, Passages: 12}, nil)

	task := NewRebuildTask(syncer, rebuilder, "data/corpus")
	assert.NoError(t, task.Run(context.Background()))

	syncer.AssertExpectations(t)
	rebuilder.AssertExpectations(t)
}

func TestRebuildTaskSyncFailureStillRebuilds(t *testing.T) {
	syncer := &MockSyncer{}
	syncer.On("SyncCorpus", mock.Anything, mock.Anything).Return(errors.New("bucket unreachable"))

	rebuilder := &MockRebuilder{}
	rebuilder.On("Rebuild", mock.Anything).Return(&service.RebuildResult{Documents: 1, Passages: 2}, nil)

	task := NewRebuildTask(syncer, rebuilder, "data/corpus")
	assert.NoError(t, task.Run(context.Background()))

	rebuilder.AssertExpectations(t)
}

func TestRebuildTaskWithoutSyncer(t *testing.T) {
	rebuilder := &MockRebuilder{}
	rebuilder.On("Rebuild", mock.Anything).Return(&service.RebuildResult{Documents: 1, Passages: 2}, nil)

	task := NewRebuildTask(nil, rebuilder, "data/corpus")
	assert.NoError(t, task.Run(context.Background()))
}

func TestRebuildTaskReportsFailure(t *testing.T) {
	rebuilder := &MockRebuilder{}
	rebuilder.On("Rebuild", mock.Anything).Return(nil, errors.New("embedding quota exhausted"))

	task := NewRebuildTask(nil, rebuilder, "data/corpus")
	assert.Error(t, task.Run(context.Background()))
}
