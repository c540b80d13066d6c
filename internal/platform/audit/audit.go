// Package audit emits security-relevant events (quota exhaustion, lazy
// subscription expiry, account deletion) to the structured log and, when a
// broker is configured, to Kafka for downstream consumers.
package audit

import (
	"context"
	"log/slog"
	"time"

	"passcheck/pkg/requestcontext"
)

// Event is a single audit fact.
type Event struct {
	Action  string            `json:"action"`
	Subject string            `json:"subject,omitempty"`
	Detail  map[string]string `json:"detail,omitempty"`
	At      time.Time         `json:"at"`
}

// Publisher delivers audit events to an external sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Log records an audit event to both the structured logger and the publisher
// if one is configured. Publisher failures are logged, never propagated:
// audit delivery must not fail the business operation.
func Log(ctx context.Context, logger *slog.Logger, publisher Publisher, action, subject string, attrs ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", action, "subject", subject, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, action, args...)
	}

	if publisher == nil {
		return
	}
	event := Event{Action: action, Subject: subject, At: time.Now().UTC()}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", action, "error", err)
	}
}
