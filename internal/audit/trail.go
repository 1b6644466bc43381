// Package audit records access events: sign-ins, sign-outs and guard
// denials. Every event is logged; when Elasticsearch is configured it is
// also indexed.
package audit

import (
	"context"
	"sync"
	"time"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/platform/elasticsearch"

	"go.uber.org/zap"
)

// Event kinds.
const (
	KindSignIn       = "sign_in"
	KindSignInFailed = "sign_in_failed"
	KindSignOut      = "sign_out"
	KindAccessDenied = "access_denied"
)

// Event is one audit record.
type Event struct {
	Kind       string    `json:"kind"`
	SessionID  string    `json:"session_id,omitempty"`
	IdentityID string    `json:"identity_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Role       string    `json:"role,omitempty"`
	Path       string    `json:"path,omitempty"`
	Outcome    string    `json:"outcome,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	At         time.Time `json:"at"`
}

// Recorder accepts audit events. Record never blocks on the sink.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Trail is the Recorder used by the gateway.
type Trail struct {
	client  *elasticsearch.ESClientWrapper
	index   string
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewTrail creates a trail. client may be nil, in which case events are
// only logged.
func NewTrail(client *elasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) *Trail {
	return &Trail{
		client:  client,
		index:   cfg.AuditIndexName,
		timeout: 5 * time.Second,
		logger:  logger.Named("Audit"),
		now:     time.Now,
	}
}

// Setup creates the audit index when a client is configured.
func (t *Trail) Setup(ctx context.Context) error {
	if t.client == nil {
		return nil
	}
	return elasticsearch.CreateAuditIndexIfNotExists(ctx, t.client, t.index, t.logger)
}

func (t *Trail) Record(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = t.now().UTC()
	}
	t.logger.Info("Audit event",
		zap.String("kind", e.Kind),
		zap.String("sessionID", e.SessionID),
		zap.String("identityID", e.IdentityID),
		zap.String("path", e.Path),
		zap.String("outcome", e.Outcome),
	)
	if t.client == nil {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := elasticsearch.IndexDocument(ctx, t.client, t.index, e); err != nil {
			t.logger.Warn("Failed to index audit event", zap.Error(err), zap.String("kind", e.Kind))
		}
	}()
}

// Flush waits for in-flight index requests.
func (t *Trail) Flush() {
	t.wg.Wait()
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
