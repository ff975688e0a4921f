package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidPhaseTransition = "INVALID_SESSION_PHASE_TRANSITION"

// ErrInvalidPhaseTransition is returned when a requested phase change is not
// part of the session lifecycle graph.
var ErrInvalidPhaseTransition = goerrors.New("invalid session phase transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidPhaseTransition).
	WithCode(goerrors.CodeBadRequest)

// Phase is a position in the session lifecycle.
type Phase string

const (
	// PhaseUninitialized: no identity probe has run yet.
	PhaseUninitialized Phase = "uninitialized"
	// PhaseInitializing: the initial identity probe is in flight.
	PhaseInitializing Phase = "initializing"
	// PhaseAuthenticated: the probe or a login resolved an identity.
	PhaseAuthenticated Phase = "authenticated"
	// PhaseAnonymous: initialization resolved with no identity. A valid,
	// terminal outcome, not an error state.
	PhaseAnonymous Phase = "anonymous"
)

// IsValid reports whether the phase is part of the lifecycle.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseUninitialized, PhaseInitializing, PhaseAuthenticated, PhaseAnonymous:
		return true
	default:
		return false
	}
}

// Resolved reports whether initialization has reached a terminal outcome.
func (p Phase) Resolved() bool {
	return p == PhaseAuthenticated || p == PhaseAnonymous
}

// phaseGraph is the allowed transition set. Logout re-enters uninitialized
// so guards re-probe instead of trusting stale state.
var phaseGraph = map[Phase][]Phase{
	PhaseUninitialized: {PhaseInitializing, PhaseAuthenticated},
	PhaseInitializing:  {PhaseAuthenticated, PhaseAnonymous},
	PhaseAuthenticated: {PhaseAuthenticated, PhaseUninitialized},
	PhaseAnonymous:     {PhaseAuthenticated, PhaseUninitialized},
}

// PhaseTransition captures a single lifecycle step for hooks and sinks.
type PhaseTransition struct {
	From       Phase
	To         Phase
	Reason     string
	Identity   *IdentityRecord
	OccurredAt time.Time
}

// PhaseHook runs around a transition. A before hook error vetoes the step.
type PhaseHook func(ctx context.Context, pt PhaseTransition) error

// PhaseMachineOption customizes machine construction.
type PhaseMachineOption func(*phaseMachine)

// WithPhaseClock injects a custom clock (useful for tests).
func WithPhaseClock(clock func() time.Time) PhaseMachineOption {
	return func(m *phaseMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithPhaseHook registers a hook that runs before each transition commits.
func WithPhaseHook(hook PhaseHook) PhaseMachineOption {
	return func(m *phaseMachine) {
		if hook != nil {
			m.before = append(m.before, hook)
		}
	}
}

// WithPhaseLogger overrides the logger used for hook failures.
func WithPhaseLogger(logger Logger) PhaseMachineOption {
	return func(m *phaseMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

type phaseMachine struct {
	now    func() time.Time
	before []PhaseHook
	logger Logger
}

func newPhaseMachine(opts ...PhaseMachineOption) *phaseMachine {
	m := &phaseMachine{
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// transition validates the step against the lifecycle graph and runs hooks.
// It does not mutate anything; the store commits state under its own lock.
func (m *phaseMachine) transition(ctx context.Context, from, to Phase, reason string, identity *IdentityRecord) (PhaseTransition, error) {
	pt := PhaseTransition{
		From:       from,
		To:         to,
		Reason:     reason,
		Identity:   identity,
		OccurredAt: m.now(),
	}

	if !from.IsValid() || !to.IsValid() || !phaseAllowed(from, to) {
		return pt, goerrors.Wrap(ErrInvalidPhaseTransition, goerrors.CategoryValidation, "session phase transition rejected").
			WithMetadata(map[string]any{
				"from":   string(from),
				"to":     string(to),
				"reason": reason,
			})
	}

	for _, hook := range m.before {
		if err := hook(ctx, pt); err != nil {
			m.logger.Warn("session phase hook vetoed transition", "from", from, "to", to, "error", err)
			return pt, err
		}
	}

	return pt, nil
}

func phaseAllowed(from, to Phase) bool {
	for _, next := range phaseGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}
