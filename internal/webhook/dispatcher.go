package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vlocr/internal/config"
	"vlocr/internal/model"
)

// Payload is the body POSTed to a job's webhook URL when it reaches a
// terminal state.
type Payload struct {
	JobID       string          `json:"job_id"`
	Status      model.JobStatus `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Dispatcher delivers job completion notifications over HTTP with retries.
type Dispatcher struct {
	client      *http.Client
	secret      string
	maxAttempts int
}

// NewDispatcher builds a dispatcher from webhook config.
func NewDispatcher(cfg config.WebhookConfig) *Dispatcher {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Dispatcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		secret:      cfg.Secret,
		maxAttempts: maxAttempts,
	}
}

// Sign computes the hex HMAC-SHA256 signature sent in X-Signature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Notify delivers the job outcome to url, retrying with linear backoff up
// to the configured attempt cap. Delivery failures are logged, not returned
// to the job pipeline.
func (d *Dispatcher) Notify(ctx context.Context, url string, job *model.Job) {
	payload := Payload{
		JobID:       job.ID,
		Status:      job.Status,
		Result:      job.Result,
		Error:       job.Error,
		CompletedAt: job.CompletedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf(`{"component":"webhook","event":"webhook_marshal_failed","job_id":%q,"error":%q}`, job.ID, err.Error())
		return
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err := d.send(ctx, url, body); err != nil {
			lastErr = err
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = d.maxAttempts
			}
			continue
		}
		log.Printf(`{"component":"webhook","event":"webhook_delivered","job_id":%q,"url":%q,"attempt":%d}`, job.ID, url, attempt)
		return
	}

	log.Printf(`{"component":"webhook","event":"webhook_failed","job_id":%q,"url":%q,"attempts":%d,"error":%q}`,
		job.ID, url, d.maxAttempts, lastErr.Error())
}

// Event is the envelope fanned out to registered subscriptions.
type Event struct {
	Event     string    `json:"event"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Broadcast fans an event out to every active subscription registered for
// its type. Each delivery is signed with the subscription's own secret and
// recorded in the registry's history.
func (d *Dispatcher) Broadcast(ctx context.Context, reg *Registry, event string, data any) {
	subs := reg.ForEvent(event)
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(Event{
		Event:     event,
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Printf(`{"component":"webhook","event":"event_marshal_failed","type":%q,"error":%q}`, event, err.Error())
		return
	}

	for _, sub := range subs {
		d.deliver(ctx, reg, sub, body)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, reg *Registry, sub Subscription, body []byte) {
	delivery := Delivery{
		ID:        uuid.New().String(),
		WebhookID: sub.ID,
		Timestamp: time.Now().UTC(),
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		delivery.Attempts = attempt
		status, err := d.sendSigned(ctx, sub, body)
		delivery.StatusCode = status
		if err == nil {
			delivery.Success = true
			reg.record(delivery)
			log.Printf(`{"component":"webhook","event":"webhook_delivered","webhook_id":%q,"url":%q,"attempt":%d}`, sub.ID, sub.URL, attempt)
			return
		}
		lastErr = err
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = d.maxAttempts
		}
	}

	delivery.Error = lastErr.Error()
	reg.record(delivery)
	log.Printf(`{"component":"webhook","event":"webhook_failed","webhook_id":%q,"url":%q,"attempts":%d,"error":%q}`,
		sub.ID, sub.URL, d.maxAttempts, lastErr.Error())
}

func (d *Dispatcher) sendSigned(ctx context.Context, sub Subscription, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-ID", sub.ID)
	req.Header.Set("X-Webhook-Signature", Sign(sub.Secret, body))
	req.Header.Set("X-Webhook-Timestamp", time.Now().UTC().Format(time.RFC3339))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (d *Dispatcher) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set("X-Signature", Sign(d.secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
