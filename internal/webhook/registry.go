package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription is a registered webhook endpoint bound to a set of event
// types.
type Subscription struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	Events        []string  `json:"events"`
	Secret        string    `json:"-"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	DeliveryCount int       `json:"delivery_count"`
	FailureCount  int       `json:"failure_count"`
}

// Delivery records one attempt cycle of posting an event to a subscription.
type Delivery struct {
	ID         string    `json:"delivery_id"`
	WebhookID  string    `json:"webhook_id"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	Attempts   int       `json:"attempts"`
}

// Registry holds webhook subscriptions and their delivery history in memory.
// Subscriptions do not survive a restart; callers are expected to
// re-register, as with the per-job webhook_url path.
type Registry struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	history []Delivery
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{subs: make(map[string]*Subscription)}
}

// Register stores a subscription for the given events. When secret is empty
// a secret is derived from the subscription ID.
func (r *Registry) Register(url string, events []string, secret string) *Subscription {
	id := uuid.New().String()
	if secret == "" {
		sum := sha256.Sum256([]byte(id))
		secret = hex.EncodeToString(sum[:])[:32]
	}
	sub := &Subscription{
		ID:        id,
		URL:       url,
		Events:    events,
		Secret:    secret,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.subs[id] = sub
	r.mu.Unlock()
	return sub
}

// Unregister removes a subscription. Returns false when the ID is unknown.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	return true
}

// Get returns a copy of the subscription, or nil when unknown.
func (r *Registry) Get(id string) *Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[id]
	if !ok {
		return nil
	}
	copied := *sub
	return &copied
}

// List returns copies of all subscriptions.
func (r *Registry) List() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, *sub)
	}
	return out
}

// ForEvent returns the active subscriptions listening for the event type.
func (r *Registry) ForEvent(event string) []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Subscription
	for _, sub := range r.subs {
		if !sub.Active {
			continue
		}
		for _, e := range sub.Events {
			if e == event {
				out = append(out, *sub)
				break
			}
		}
	}
	return out
}

// History returns the most recent deliveries, newest last, optionally
// filtered by webhook ID.
func (r *Registry) History(webhookID string, limit int) []Delivery {
	if limit <= 0 {
		limit = 100
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Delivery
	for _, d := range r.history {
		if webhookID == "" || d.WebhookID == webhookID {
			out = append(out, d)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// record appends a delivery outcome and updates the subscription counters.
func (r *Registry) record(d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, d)
	if sub, ok := r.subs[d.WebhookID]; ok {
		if d.Success {
			sub.DeliveryCount++
		} else {
			sub.FailureCount++
		}
	}
}
