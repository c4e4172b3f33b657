package repository

import (
	"context"
	"encoding/json"

	"vlocr/internal/model"
)

// JobRepository defines data access for OCR jobs. Status transitions are
// enforced by the service layer; this interface only persists them.
type JobRepository interface {
	// Create inserts a new job record and returns the stored row.
	Create(ctx context.Context, job *model.Job) (*model.Job, error)

	// FindByID returns a job by its ID.
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// UpdateStatus sets the status and attempt count for a job. Pending →
	// processing sets started_at.
	UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int) error

	// Complete stores the result payload and marks the job completed.
	Complete(ctx context.Context, id string, result json.RawMessage) error

	// Fail records the error message and marks the job failed.
	Fail(ctx context.Context, id string, errMsg string) error

	// List returns a paginated list of jobs, optionally filtered by status.
	List(ctx context.Context, status model.JobStatus, pq PageQuery) (*PageResult[model.Job], error)

	// CountByStatus returns job counts keyed by status for queue stats.
	CountByStatus(ctx context.Context) (map[model.JobStatus]int, error)
}
