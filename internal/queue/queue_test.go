package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"vlocr/internal/model"
	"vlocr/internal/repository"
	"vlocr/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestJob(id string, priority model.JobPriority) *model.Job {
	return &model.Job{
		ID:          id,
		DocumentID:  "doc-" + id,
		Kind:        "ocr",
		Status:      model.JobPending,
		Priority:    priority,
		MaxAttempts: 3,
		CreatedAt:   time.Now(),
	}
}

func TestQueueProcessesJob(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("UpdateStatus", mock.Anything, "j1", model.JobProcessing, 1).Return(nil)
	repo.On("Complete", mock.Anything, "j1", mock.Anything).Return(nil)

	done := make(chan *model.Job, 1)
	q := New(Options{Workers: 1, MaxRetries: 3, RetryBackoffSec: 1}, repo,
		func(ctx context.Context, job *model.Job) (json.RawMessage, error) {
			return json.RawMessage(`{"text":"ok"}`), nil
		},
		func(job *model.Job) { done <- job },
	)
	q.Start()
	defer q.Stop(context.Background())

	q.Enqueue(newTestJob("j1", model.PriorityNormal))

	select {
	case job := <-done:
		assert.Equal(t, model.JobCompleted, job.Status)
		assert.JSONEq(t, `{"text":"ok"}`, string(job.Result))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed in time")
	}
	repo.AssertExpectations(t)
}

func TestQueuePriorityOrder(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, model.JobProcessing, 1).Return(nil)
	repo.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	var mu sync.Mutex
	var order []string
	release := make(chan struct{})
	done := make(chan struct{}, 3)

	q := New(Options{Workers: 1}, repo,
		func(ctx context.Context, job *model.Job) (json.RawMessage, error) {
			<-release
			mu.Lock()
			order = append(order, job.ID)
			mu.Unlock()
			done <- struct{}{}
			return json.RawMessage(`{}`), nil
		},
		nil,
	)

	// Enqueue before starting so ordering is decided purely by the heap.
	q.Enqueue(newTestJob("low", model.PriorityLow))
	q.Enqueue(newTestJob("normal", model.PriorityNormal))
	q.Enqueue(newTestJob("high", model.PriorityHigh))

	q.Start()
	defer q.Stop(context.Background())
	close(release)

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("jobs were not processed in time")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "normal", "low"}, order)
}

func TestQueueRetriesThenFails(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("UpdateStatus", mock.Anything, "flaky", model.JobProcessing, mock.Anything).Return(nil)
	repo.On("UpdateStatus", mock.Anything, "flaky", model.JobPending, mock.Anything).Return(nil)
	repo.On("Fail", mock.Anything, "flaky", mock.Anything).Return(nil)

	var attempts int
	var mu sync.Mutex
	done := make(chan *model.Job, 1)

	q := New(Options{Workers: 1, MaxRetries: 2, RetryBackoffSec: 1}, repo,
		func(ctx context.Context, job *model.Job) (json.RawMessage, error) {
			mu.Lock()
			attempts++
			mu.Unlock()
			return nil, errors.New("model unavailable")
		},
		func(job *model.Job) { done <- job },
	)
	q.Start()
	defer q.Stop(context.Background())

	q.Enqueue(newTestJob("flaky", model.PriorityNormal))

	select {
	case job := <-done:
		assert.Equal(t, model.JobFailed, job.Status)
		assert.Contains(t, job.Error, "failed after 2 attempts")
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fail in time")
	}

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
	repo.AssertExpectations(t)
}

func TestQueueCancelPending(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	pending := newTestJob("c1", model.PriorityNormal)
	repo.On("FindByID", mock.Anything, "c1").Return(pending, nil)
	repo.On("UpdateStatus", mock.Anything, "c1", model.JobCancelled, 0).Return(nil)

	notified := make(chan *model.Job, 1)
	q := New(Options{Workers: 1}, repo, nil, func(job *model.Job) { notified <- job })

	// Not started: the job sits in the heap.
	q.Enqueue(pending)

	ok, err := q.Cancel(context.Background(), "c1")
	assert.NoError(t, err)
	assert.True(t, ok)

	select {
	case job := <-notified:
		assert.Equal(t, model.JobCancelled, job.Status)
	case <-time.After(time.Second):
		t.Fatal("cancel notification missing")
	}
	repo.AssertExpectations(t)
}

func TestQueueCancelTerminal(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	completed := newTestJob("c2", model.PriorityNormal)
	completed.Status = model.JobCompleted
	repo.On("FindByID", mock.Anything, "c2").Return(completed, nil)

	q := New(Options{Workers: 1}, repo, nil, nil)

	ok, err := q.Cancel(context.Background(), "c2")
	assert.NoError(t, err)
	assert.False(t, ok)
	repo.AssertExpectations(t)
}

func TestQueueRestoresPendingJobs(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("List", mock.Anything, model.JobPending, repository.PageQuery{Limit: 100, Offset: 0}).
		Return(&repository.PageResult[model.Job]{
			Items: []model.Job{*newTestJob("r1", model.PriorityNormal), *newTestJob("r2", model.PriorityHigh)},
			Total: 2,
		}, nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything, model.JobProcessing, 1).Return(nil)
	repo.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	done := make(chan *model.Job, 2)
	q := New(Options{Workers: 1}, repo,
		func(ctx context.Context, job *model.Job) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		},
		func(job *model.Job) { done <- job },
	)

	require.NoError(t, q.Restore(context.Background()))
	assert.Equal(t, 2, q.Depth())

	q.Start()
	defer q.Stop(context.Background())

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case job := <-done:
			seen[job.ID] = true
			assert.Equal(t, model.JobCompleted, job.Status)
		case <-time.After(2 * time.Second):
			t.Fatal("restored jobs were not processed in time")
		}
	}
	assert.True(t, seen["r1"] && seen["r2"])
	repo.AssertExpectations(t)
}

func TestQueueRestoreListError(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("List", mock.Anything, model.JobPending, mock.Anything).
		Return(nil, errors.New("db down"))

	q := New(Options{Workers: 1}, repo, nil, nil)

	err := q.Restore(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, q.Depth())
}

func TestQueueStats(t *testing.T) {
	repo := new(mocks.MockJobRepository)
	repo.On("CountByStatus", mock.Anything).Return(map[model.JobStatus]int{
		model.JobPending:   2,
		model.JobCompleted: 5,
	}, nil)

	q := New(Options{Workers: 4}, repo, nil, nil)
	q.Enqueue(newTestJob("s1", model.PriorityNormal))
	q.Enqueue(newTestJob("s2", model.PriorityLow))

	stats, err := q.Stats(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Queued)
	assert.Equal(t, 4, stats.Workers)
	assert.Equal(t, 5, stats.Counts[model.JobCompleted])
}
