package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"vlocr/internal/model"
	"vlocr/internal/repository"
)

// JobPostgres is a PostgreSQL implementation of repository.JobRepository.
type JobPostgres struct {
	db *sql.DB
}

// NewJobPostgres creates a new JobPostgres repository.
func NewJobPostgres(db *sql.DB) *JobPostgres {
	return &JobPostgres{db: db}
}

var _ repository.JobRepository = (*JobPostgres)(nil)

const jobColumns = `id, document_id, kind, status, priority, attempts, max_attempts, params, result, error, webhook_url, created_at, started_at, completed_at`

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	var (
		j          model.Job
		params     []byte
		result     []byte
		errMsg     sql.NullString
		webhookURL sql.NullString
		startedAt  sql.NullTime
		completed  sql.NullTime
	)
	if err := row.Scan(
		&j.ID,
		&j.DocumentID,
		&j.Kind,
		&j.Status,
		&j.Priority,
		&j.Attempts,
		&j.MaxAttempts,
		&params,
		&result,
		&errMsg,
		&webhookURL,
		&j.CreatedAt,
		&startedAt,
		&completed,
	); err != nil {
		return nil, err
	}
	j.Params = json.RawMessage(params)
	j.Result = json.RawMessage(result)
	j.Error = errMsg.String
	j.WebhookURL = webhookURL.String
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completed.Valid {
		t := completed.Time
		j.CompletedAt = &t
	}
	return &j, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new job row and returns the stored record.
func (r *JobPostgres) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	const q = `
		INSERT INTO ocr_jobs (id, document_id, kind, status, priority, attempts, max_attempts, params, webhook_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + jobColumns
	var params any
	if len(job.Params) > 0 {
		params = []byte(job.Params)
	}
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.DocumentID,
		job.Kind,
		job.Status,
		job.Priority,
		job.Attempts,
		job.MaxAttempts,
		params,
		nullString(job.WebhookURL),
		job.CreatedAt,
	)
	return scanJob(row)
}

// FindByID fetches a single job by its ID.
func (r *JobPostgres) FindByID(ctx context.Context, id string) (*model.Job, error) {
	const q = `
		SELECT ` + jobColumns + `
		FROM ocr_jobs
		WHERE id = $1
	`
	return scanJob(r.db.QueryRowContext(ctx, q, id))
}

// UpdateStatus sets status and attempts. Moving into processing stamps
// started_at on the first transition only.
func (r *JobPostgres) UpdateStatus(ctx context.Context, id string, status model.JobStatus, attempts int) error {
	const q = `
		UPDATE ocr_jobs
		SET status = $2,
		    attempts = $3,
		    started_at = CASE WHEN $2 = 'processing' AND started_at IS NULL THEN now() ELSE started_at END,
		    completed_at = CASE WHEN $2 IN ('cancelled') THEN now() ELSE completed_at END
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, status, attempts)
	return err
}

// Complete stores the result payload and marks the job completed.
func (r *JobPostgres) Complete(ctx context.Context, id string, result json.RawMessage) error {
	const q = `
		UPDATE ocr_jobs
		SET status = 'completed', result = $2, completed_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, []byte(result))
	return err
}

// Fail records the error message and marks the job failed.
func (r *JobPostgres) Fail(ctx context.Context, id string, errMsg string) error {
	const q = `
		UPDATE ocr_jobs
		SET status = 'failed', error = $2, completed_at = now()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, errMsg)
	return err
}

// List returns jobs using LIMIT/OFFSET pagination, optionally filtered by status.
func (r *JobPostgres) List(ctx context.Context, status model.JobStatus, pq repository.PageQuery) (*repository.PageResult[model.Job], error) {
	var (
		total int
		rows  *sql.Rows
		err   error
	)
	if status != "" {
		const qCount = `SELECT COUNT(*) FROM ocr_jobs WHERE status = $1`
		if err = r.db.QueryRowContext(ctx, qCount, status).Scan(&total); err != nil {
			return nil, err
		}
		const qList = `
			SELECT ` + jobColumns + `
			FROM ocr_jobs
			WHERE status = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3
		`
		rows, err = r.db.QueryContext(ctx, qList, status, pq.Limit, pq.Offset)
	} else {
		const qCount = `SELECT COUNT(*) FROM ocr_jobs`
		if err = r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
			return nil, err
		}
		const qList = `
			SELECT ` + jobColumns + `
			FROM ocr_jobs
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2
		`
		rows, err = r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Job]{
		Items: items,
		Total: total,
	}, nil
}

// CountByStatus returns job counts grouped by status.
func (r *JobPostgres) CountByStatus(ctx context.Context) (map[model.JobStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM ocr_jobs GROUP BY status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int)
	for rows.Next() {
		var (
			status model.JobStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
