package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventInitAuthenticated ActivityEventType = "session.init.authenticated"
	ActivityEventInitAnonymous     ActivityEventType = "session.init.anonymous"
	ActivityEventLoginSuccess      ActivityEventType = "session.login.success"
	ActivityEventLoginFailure      ActivityEventType = "session.login.failure"
	ActivityEventLogout            ActivityEventType = "session.logout"
	ActivityEventStaleProbeDropped ActivityEventType = "session.probe.stale_dropped"
)

// ActivityEvent captures audit-friendly information about a lifecycle step.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromPhase  Phase
	ToPhase    Phase
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best effort: errors are logged, never propagated, so forwarding
// to a database or queue cannot block authentication.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
