package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"vlocr/internal/model"
	"vlocr/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var jobCols = []string{"id", "document_id", "kind", "status", "priority", "attempts", "max_attempts", "params", "result", "error", "webhook_url", "created_at", "started_at", "completed_at"}

func TestJobPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	job := &model.Job{
		ID:          "job-uuid",
		DocumentID:  "doc-uuid",
		Kind:        "ocr",
		Status:      model.JobPending,
		Priority:    model.PriorityNormal,
		Attempts:    0,
		MaxAttempts: 3,
		WebhookURL:  "https://example.com/hook",
		CreatedAt:   now,
	}

	rows := sqlmock.NewRows(jobCols).
		AddRow(job.ID, job.DocumentID, job.Kind, string(job.Status), int(job.Priority), job.Attempts, job.MaxAttempts, nil, nil, nil, job.WebhookURL, job.CreatedAt, nil, nil)

	mock.ExpectQuery("INSERT INTO ocr_jobs").
		WillReturnRows(rows)

	result, err := repo.Create(ctx, job)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, model.JobPending, result.Status)
	assert.Nil(t, result.StartedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		started := time.Now().Add(-time.Minute)
		rows := sqlmock.NewRows(jobCols).
			AddRow("job-id", "doc-id", "ocr", "processing", 2, 1, 3, nil, []byte(`{"text":"hi"}`), nil, nil, time.Now(), started, nil)

		mock.ExpectQuery("SELECT (.+) FROM ocr_jobs WHERE id = ?").
			WithArgs("job-id").
			WillReturnRows(rows)

		job, err := repo.FindByID(ctx, "job-id")

		assert.NoError(t, err)
		assert.Equal(t, model.JobProcessing, job.Status)
		assert.NotNil(t, job.StartedAt)
		assert.JSONEq(t, `{"text":"hi"}`, string(job.Result))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM ocr_jobs WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		job, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, job)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE ocr_jobs").
		WithArgs("job-id", model.JobProcessing, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateStatus(ctx, "job-id", model.JobProcessing, 1)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	payload := json.RawMessage(`{"text":"done"}`)

	mock.ExpectExec("UPDATE ocr_jobs").
		WithArgs("job-id", []byte(payload)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(ctx, "job-id", payload)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_Fail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE ocr_jobs").
		WithArgs("job-id", "model timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Fail(ctx, "job-id", "model timeout")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	t.Run("filtered by status", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(model.JobPending).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows(jobCols).
			AddRow("job-1", "doc-1", "ocr", "pending", 1, 0, 3, nil, nil, nil, nil, time.Now(), nil, nil)

		mock.ExpectQuery("SELECT (.+) FROM ocr_jobs WHERE status = ?").
			WithArgs(model.JobPending, 10, 0).
			WillReturnRows(rows)

		result, err := repo.List(ctx, model.JobPending, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.Len(t, result.Items, 1)
	})

	t.Run("all statuses", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM ocr_jobs ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(sqlmock.NewRows(jobCols))

		result, err := repo.List(ctx, "", repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, result.Total)
		assert.Empty(t, result.Items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobPostgres_CountByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 3).
		AddRow("completed", 12)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 3, counts[model.JobPending])
	assert.Equal(t, 12, counts[model.JobCompleted])
	assert.NoError(t, mock.ExpectationsWereMet())
}
