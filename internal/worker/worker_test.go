package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/domain"
	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven/mocks"
)

type fakeIndexService struct {
	mu    sync.Mutex
	calls []string
	count int
	err   error
}

func (f *fakeIndexService) Index(ctx context.Context, documentID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, documentID)
	return f.count, f.err
}

// fakeRunService completes the run after a fixed number of Advance calls.
type fakeRunService struct {
	mu           sync.Mutex
	run          *domain.Run
	advanceCalls int
	stepsToDone  int
	advanceErr   error
}

func newFakeRunService(runID string, stepsToDone int) *fakeRunService {
	return &fakeRunService{
		run: &domain.Run{
			ID:         runID,
			ProjectID:  "proj-1",
			State:      domain.RunStateCreated,
			ItemsTotal: stepsToDone,
		},
		stepsToDone: stepsToDone,
	}
}

func (f *fakeRunService) CreateRun(ctx context.Context, projectID string) (*domain.Run, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRunService) Advance(ctx context.Context, runID string) (*domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	if runID != f.run.ID {
		return nil, domain.ErrNotFound
	}
	f.advanceCalls++
	if f.advanceCalls >= f.stepsToDone {
		f.run.State = domain.RunStateCompleted
		f.run.ItemsOK = f.stepsToDone
	} else {
		f.run.State = domain.RunStateInProgress
	}
	return f.run, nil
}

func (f *fakeRunService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	return f.run, nil
}

func (f *fakeRunService) ListRuns(ctx context.Context, projectID string) ([]*domain.Run, error) {
	return []*domain.Run{f.run}, nil
}

func (f *fakeRunService) ListItems(ctx context.Context, runID string) ([]*domain.RunItem, error) {
	return nil, nil
}

func TestWorker_HandleIndexDocument(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	index := &fakeIndexService{count: 7}
	runs := newFakeRunService("run-1", 1)

	w := New(Config{
		TaskQueue:    queue,
		IndexService: index,
		RunService:   runs,
	})

	ctx := context.Background()
	task := domain.NewIndexDocumentTask("doc-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, err := queue.DequeueWithTimeout(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	w.processTask(ctx, got, w.logger)

	if len(index.calls) != 1 || index.calls[0] != "doc-1" {
		t.Errorf("index calls = %v, want [doc-1]", index.calls)
	}

	stored, err := queue.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("task status = %q, want completed", stored.Status)
	}
}

func TestWorker_HandleIndexDocument_MissingPayload(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	index := &fakeIndexService{}

	w := New(Config{TaskQueue: queue, IndexService: index})

	ctx := context.Background()
	task := domain.NewTask(domain.TaskTypeIndexDocument, map[string]string{})
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, _ := queue.DequeueWithTimeout(ctx, 0)
	w.processTask(ctx, got, w.logger)

	if len(index.calls) != 0 {
		t.Errorf("expected no index calls, got %v", index.calls)
	}

	stored, _ := queue.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("task status = %q, want pending (nacked for retry)", stored.Status)
	}
	if stored.Error == "" {
		t.Error("expected an error message on the task")
	}
}

func TestWorker_HandleProcessRun_AdvancesToCompletion(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	runs := newFakeRunService("run-1", 3)

	w := New(Config{
		TaskQueue:    queue,
		IndexService: &fakeIndexService{},
		RunService:   runs,
	})
	w.stopCh = make(chan struct{})

	ctx := context.Background()
	task := domain.NewProcessRunTask("run-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, _ := queue.DequeueWithTimeout(ctx, 0)
	w.processTask(ctx, got, w.logger)

	if runs.advanceCalls != 3 {
		t.Errorf("advance calls = %d, want 3", runs.advanceCalls)
	}
	if runs.run.State != domain.RunStateCompleted {
		t.Errorf("run state = %q, want completed", runs.run.State)
	}

	stored, _ := queue.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("task status = %q, want completed", stored.Status)
	}
}

func TestWorker_HandleProcessRun_BusyRunNacked(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	runs := newFakeRunService("run-1", 1)
	runs.advanceErr = domain.ErrRunBusy

	w := New(Config{
		TaskQueue:    queue,
		IndexService: &fakeIndexService{},
		RunService:   runs,
	})
	w.stopCh = make(chan struct{})

	ctx := context.Background()
	task := domain.NewProcessRunTask("run-1")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, _ := queue.DequeueWithTimeout(ctx, 0)
	w.processTask(ctx, got, w.logger)

	stored, _ := queue.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("task status = %q, want pending", stored.Status)
	}
}

func TestWorker_UnknownTaskType(t *testing.T) {
	queue := mocks.NewMockTaskQueue()

	w := New(Config{
		TaskQueue:    queue,
		IndexService: &fakeIndexService{},
		RunService:   newFakeRunService("run-1", 1),
	})

	ctx := context.Background()
	task := domain.NewTask(domain.TaskType("mystery"), nil)
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, _ := queue.DequeueWithTimeout(ctx, 0)
	w.processTask(ctx, got, w.logger)

	stored, _ := queue.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("task status = %q, want pending", stored.Status)
	}
	if stored.Error == "" {
		t.Error("expected an error message on the task")
	}
}

func TestWorker_StartStop(t *testing.T) {
	queue := mocks.NewMockTaskQueue()
	index := &fakeIndexService{count: 1}

	w := New(Config{
		TaskQueue:      queue,
		IndexService:   index,
		RunService:     newFakeRunService("run-1", 1),
		Concurrency:    2,
		DequeueTimeout: 1,
	})

	ctx := context.Background()
	if err := queue.Enqueue(ctx, domain.NewIndexDocumentTask("doc-1")); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Give the worker goroutines time to drain the queue
	deadline := time.After(2 * time.Second)
	for {
		index.mu.Lock()
		done := len(index.calls) == 1
		index.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker did not process the task in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	w.Stop()
}
