package queue

import (
	"container/heap"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"vlocr/internal/model"
	"vlocr/internal/repository"
)

// ProcessFunc executes a job and returns its result payload.
type ProcessFunc func(ctx context.Context, job *model.Job) (json.RawMessage, error)

// NotifyFunc is called when a job reaches a terminal state, for webhook
// delivery and status mirroring. It must not block the worker for long.
type NotifyFunc func(job *model.Job)

// item is a heap entry. seq breaks priority ties so equal-priority jobs
// dequeue in FIFO order.
type item struct {
	job *model.Job
	seq uint64
}

type jobHeap []*item

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority < h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)   { *h = append(*h, x.(*item)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Options configure the worker pool.
type Options struct {
	Workers         int
	MaxRetries      int
	RetryBackoffSec int
}

// Queue is an in-process priority job queue backed by PostgreSQL for
// persistence. Workers pull the highest-priority pending job, run it through
// the process function, and retry transient failures with linear backoff.
type Queue struct {
	opts    Options
	jobs    repository.JobRepository
	process ProcessFunc
	notify  NotifyFunc

	mu        sync.Mutex
	heap      jobHeap
	seq       uint64
	cancelled map[string]bool

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// Stats is a point-in-time view of queue depth and job counts.
type Stats struct {
	Queued  int                     `json:"queued"`
	Workers int                     `json:"workers"`
	Counts  map[model.JobStatus]int `json:"counts"`
}

// New creates a queue. Call Start to launch the workers.
func New(opts Options, jobs repository.JobRepository, process ProcessFunc, notify NotifyFunc) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBackoffSec <= 0 {
		opts.RetryBackoffSec = 2
	}
	return &Queue{
		opts:      opts,
		jobs:      jobs,
		process:   process,
		notify:    notify,
		cancelled: make(map[string]bool),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}
}

// Restore reloads pending jobs persisted before a restart into the heap so
// they are not stranded. Call it before Start.
func (q *Queue) Restore(ctx context.Context) error {
	const pageSize = 100
	restored := 0
	for offset := 0; ; offset += pageSize {
		page, err := q.jobs.List(ctx, model.JobPending, repository.PageQuery{Limit: pageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("list pending jobs: %w", err)
		}
		for i := range page.Items {
			q.Enqueue(&page.Items[i])
			restored++
		}
		if len(page.Items) < pageSize {
			break
		}
	}
	if restored > 0 {
		log.Printf(`{"component":"queue","event":"jobs_restored","count":%d}`, restored)
	}
	return nil
}

// Start launches the worker goroutines.
func (q *Queue) Start() {
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop signals workers to finish their current job and waits for them, or
// gives up when ctx expires.
func (q *Queue) Stop(ctx context.Context) error {
	close(q.stop)
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue adds a pending job to the in-memory heap. The job row must
// already be persisted.
func (q *Queue) Enqueue(job *model.Job) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.heap, &item{job: job, seq: q.seq})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Cancel marks a queued job as cancelled. Returns false when the job has
// already started processing or finished.
func (q *Queue) Cancel(ctx context.Context, jobID string) (bool, error) {
	job, err := q.jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Status != model.JobPending {
		return false, nil
	}

	q.mu.Lock()
	q.cancelled[jobID] = true
	q.mu.Unlock()

	if err := q.jobs.UpdateStatus(ctx, jobID, model.JobCancelled, job.Attempts); err != nil {
		return false, err
	}
	job.Status = model.JobCancelled
	if q.notify != nil {
		q.notify(job)
	}
	return true, nil
}

// Depth returns the number of jobs waiting in the heap.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Stats combines in-memory depth with persisted per-status counts.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	counts, err := q.jobs.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Queued:  q.Depth(),
		Workers: q.opts.Workers,
		Counts:  counts,
	}, nil
}

func (q *Queue) pop() *model.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.heap.Len() > 0 {
		it := heap.Pop(&q.heap).(*item)
		if q.cancelled[it.job.ID] {
			delete(q.cancelled, it.job.ID)
			continue
		}
		if q.heap.Len() > 0 {
			// Let another idle worker pick up the rest.
			select {
			case q.wake <- struct{}{}:
			default:
			}
		}
		return it.job
	}
	return nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		job := q.pop()
		if job == nil {
			select {
			case <-q.wake:
				continue
			case <-q.stop:
				return
			}
		}

		select {
		case <-q.stop:
			// Push back so the job is not lost on restart accounting;
			// the row stays pending in the database either way.
			q.Enqueue(job)
			return
		default:
		}

		q.run(job, id)
	}
}

func (q *Queue) run(job *model.Job, workerID int) {
	ctx := context.Background()

	job.Attempts++
	if err := q.jobs.UpdateStatus(ctx, job.ID, model.JobProcessing, job.Attempts); err != nil {
		log.Printf(`{"component":"queue","event":"job_status_update_failed","job_id":%q,"error":%q}`, job.ID, err.Error())
	}
	job.Status = model.JobProcessing

	result, err := q.process(ctx, job)
	if err == nil {
		if err := q.jobs.Complete(ctx, job.ID, result); err != nil {
			log.Printf(`{"component":"queue","event":"job_complete_persist_failed","job_id":%q,"error":%q}`, job.ID, err.Error())
		}
		job.Status = model.JobCompleted
		job.Result = result
		now := time.Now()
		job.CompletedAt = &now
		if q.notify != nil {
			q.notify(job)
		}
		return
	}

	if job.Attempts < q.opts.MaxRetries {
		backoff := time.Duration(job.Attempts*q.opts.RetryBackoffSec) * time.Second
		log.Printf(`{"component":"queue","event":"job_retry","job_id":%q,"attempt":%d,"backoff_sec":%.0f,"error":%q}`,
			job.ID, job.Attempts, backoff.Seconds(), err.Error())

		if uerr := q.jobs.UpdateStatus(ctx, job.ID, model.JobPending, job.Attempts); uerr != nil {
			log.Printf(`{"component":"queue","event":"job_status_update_failed","job_id":%q,"error":%q}`, job.ID, uerr.Error())
		}
		job.Status = model.JobPending

		select {
		case <-time.After(backoff):
			q.Enqueue(job)
		case <-q.stop:
			q.Enqueue(job)
		}
		return
	}

	msg := fmt.Sprintf("failed after %d attempts: %v", job.Attempts, err)
	if ferr := q.jobs.Fail(ctx, job.ID, msg); ferr != nil {
		log.Printf(`{"component":"queue","event":"job_fail_persist_failed","job_id":%q,"error":%q}`, job.ID, ferr.Error())
	}
	job.Status = model.JobFailed
	job.Error = msg
	now := time.Now()
	job.CompletedAt = &now
	if q.notify != nil {
		q.notify(job)
	}
}
