package model

import (
	"encoding/json"
	"time"
)

// JobStatus is the lifecycle state of a processing job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
)

// JobPriority orders jobs in the queue. Lower value dequeues first.
type JobPriority int

const (
	PriorityHigh   JobPriority = 1
	PriorityNormal JobPriority = 2
	PriorityLow    JobPriority = 3
)

// ParsePriority maps the API form value to a priority, defaulting to normal.
func ParsePriority(s string) JobPriority {
	switch s {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Job is a queued OCR processing task. Result holds the completed response
// body as raw JSON so the repository can persist it without knowing its shape.
type Job struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	Kind        string          `json:"kind"`
	Status      JobStatus       `json:"status"`
	Priority    JobPriority     `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Params      json.RawMessage `json:"params,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	WebhookURL  string          `json:"webhook_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}
