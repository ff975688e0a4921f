package session

import (
	"context"
	"sync"
)

// State is an atomic snapshot of the session. Guards and view helpers are
// pure functions of it; they never reach into the store's internals.
type State struct {
	Identity *IdentityRecord
	// Loading is true while an identity fetch or login call is in flight.
	Loading bool
	// Initialized is true once the initial identity probe resolved, for
	// either outcome. Only Logout resets it.
	Initialized bool
}

// IsAuthenticated is derived, never stored: true iff an identity is present.
func (s State) IsAuthenticated() bool {
	return s.Identity != nil
}

// Phase maps the snapshot onto the lifecycle graph.
func (s State) Phase() Phase {
	switch {
	case s.Initialized && s.Identity != nil:
		return PhaseAuthenticated
	case s.Initialized:
		return PhaseAnonymous
	case s.Loading:
		return PhaseInitializing
	default:
		return PhaseUninitialized
	}
}

// Store is the single source of truth for "who is logged in". One instance
// is shared by every guard and handler in the process; all mutation goes
// through Login, Logout and Init. It is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	identity    *IdentityRecord
	loading     bool
	initialized bool

	// inflight is the single-flight handle for the initial identity probe.
	// Non-nil while a probe is running; concurrent Init callers wait on it
	// instead of starting a second fetch.
	inflight chan struct{}

	// generation invalidates in-flight probes across a logout so a late
	// resolution cannot resurrect the identity.
	generation uint64

	svc     IdentityService
	machine *phaseMachine
	logger  Logger
	sink    ActivitySink
}

// NewStore returns a Store bound to the given identity service.
func NewStore(svc IdentityService, opts ...PhaseMachineOption) *Store {
	return &Store{
		svc:     svc,
		machine: newPhaseMachine(opts...),
		logger:  defLogger{},
		sink:    noopActivitySink{},
	}
}

func (s *Store) WithLogger(logger Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for session lifecycle events.
func (s *Store) WithActivitySink(sink ActivitySink) *Store {
	s.sink = normalizeActivitySink(sink)
	return s
}

// Snapshot returns the current state. The identity pointer is shared;
// treat the record as read only.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Identity:    s.identity,
		Loading:     s.loading,
		Initialized: s.initialized,
	}
}

// IsAuthenticated reports whether an identity is currently present.
func (s *Store) IsAuthenticated() bool {
	return s.Snapshot().IsAuthenticated()
}

// Login exchanges credentials for an identity and commits it. The identity
// is returned to the caller for immediate use, e.g. a role gated redirect,
// without waiting for the next guard evaluation. Failures propagate the
// collaborator's structured error unchanged; state stays anonymous and the
// loading flag is cleared on every path.
func (s *Store) Login(ctx context.Context, identifier, password string) (*IdentityRecord, error) {
	s.mu.Lock()
	s.loading = true
	from := s.snapshotLocked().Phase()
	s.mu.Unlock()

	// cleared again on the success path inside the same critical section
	// that commits the identity, so the two never diverge across renders
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	identity, err := s.svc.ExchangeCredentials(ctx, identifier, password)
	if err != nil {
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			FromPhase: from,
			ToPhase:   from,
			Metadata:  map[string]any{"identifier": identifier, "kind": LoginErrorKind(err)},
		})
		return nil, err
	}

	if identity == nil {
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			FromPhase: from,
			ToPhase:   from,
			Metadata:  map[string]any{"identifier": identifier, "kind": TextCodeIdentityMissing},
		})
		return nil, ErrIdentityNotFound
	}

	pt, err := s.machine.transition(ctx, from, PhaseAuthenticated, "login", identity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.identity = identity
	s.initialized = true
	s.loading = false
	s.mu.Unlock()

	s.emit(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		UserID:     identity.ID,
		FromPhase:  pt.From,
		ToPhase:    pt.To,
		OccurredAt: pt.OccurredAt,
	})

	return identity, nil
}

// Logout invalidates the server side session best effort, then
// unconditionally clears the local identity and resets initialization, so
// the next guard mount re-probes instead of flashing stale protected
// content. A user can always leave the authenticated state locally even if
// the server call fails.
func (s *Store) Logout(ctx context.Context) {
	if err := s.svc.InvalidateSession(ctx); err != nil {
		s.logger.Warn("logout: server session invalidation failed", "error", err)
	}

	s.mu.Lock()
	from := s.snapshotLocked().Phase()
	var userID string
	if s.identity != nil {
		userID = s.identity.ID
	}
	s.generation++
	s.identity = nil
	s.initialized = false
	s.loading = false
	// orphan any in-flight probe; its resolution sees the stale generation
	// and discards itself
	s.inflight = nil
	s.mu.Unlock()

	s.emit(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    userID,
		FromPhase: from,
		ToPhase:   PhaseUninitialized,
	})
}

// Init runs the initial identity probe exactly once. It is idempotent and
// single-flight: once initialized it returns without a network call, and N
// concurrent callers before resolution share one underlying fetch and one
// outcome. Probe failure is absorbed into the anonymous state, never
// surfaced; the only error returned is the caller's own context.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}

	if s.inflight != nil {
		done := s.inflight
		s.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	done := make(chan struct{})
	gen := s.generation
	s.inflight = done
	s.loading = true
	s.mu.Unlock()

	if _, err := s.machine.transition(ctx, PhaseUninitialized, PhaseInitializing, "init", nil); err != nil {
		// validation hooks cannot veto initialization; note it and move on
		s.logger.Warn("init: phase hook rejected probe start", "error", err)
	}

	identity, err := s.svc.FetchCurrentIdentity(ctx)
	if err != nil {
		if IsAnonymousError(err) {
			s.logger.Debug("init: no active session, resolving anonymous")
		} else {
			s.logger.Info("init: identity probe failed, resolving anonymous", "error", err)
		}
		identity = nil
	}

	s.mu.Lock()
	stale := gen != s.generation
	if !stale {
		s.identity = identity
		s.initialized = true
		s.loading = false
	}
	if s.inflight == done {
		s.inflight = nil
	}
	s.mu.Unlock()
	close(done)

	if stale {
		s.emit(ctx, ActivityEvent{
			EventType: ActivityEventStaleProbeDropped,
			FromPhase: PhaseInitializing,
			ToPhase:   PhaseUninitialized,
		})
		return nil
	}

	event := ActivityEvent{EventType: ActivityEventInitAnonymous, FromPhase: PhaseInitializing, ToPhase: PhaseAnonymous}
	if identity != nil {
		event = ActivityEvent{
			EventType: ActivityEventInitAuthenticated,
			UserID:    identity.ID,
			FromPhase: PhaseInitializing,
			ToPhase:   PhaseAuthenticated,
		}
	}
	s.emit(ctx, event)

	return nil
}

func (s *Store) snapshotLocked() State {
	return State{
		Identity:    s.identity,
		Loading:     s.loading,
		Initialized: s.initialized,
	}
}

func (s *Store) emit(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.machine.now()
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Error("activity sink record failed", "event", string(event.EventType), "error", err)
	}
}
