package session

import (
	"github.com/goliatone/go-router"
)

// Outcome is a guard's render decision.
type Outcome string

const (
	// OutcomePending: initialization has not resolved; show the loading
	// state, neither content nor fallback. Avoids flashing the login
	// screen during the initial probe.
	OutcomePending Outcome = "pending"
	// OutcomeDenied: anonymous visitor or missing capability. The guard
	// does not distinguish the two externally.
	OutcomeDenied Outcome = "denied"
	// OutcomeGranted: render the protected subtree.
	OutcomeGranted Outcome = "granted"
)

// Evaluate is the guard decision table, a pure function of the snapshot.
// adminRole overrides the administrator marker; empty means RoleAdmin.
func Evaluate(st State, capability Capability, adminRole RoleCode) Outcome {
	if !st.Initialized || st.Loading {
		return OutcomePending
	}
	if st.Identity == nil {
		return OutcomeDenied
	}
	if !capability.SatisfiedBy(st.Identity.RoleSet(), adminRole) {
		return OutcomeDenied
	}
	return OutcomeGranted
}

// Guard gates request handling behind the session lifecycle, with an
// optional elevated capability requirement per route.
type Guard struct {
	store  *Store
	cfg    Config
	logger Logger
}

// NewGuard returns a Guard reading from the given store.
func NewGuard(store *Store, cfg Config) *Guard {
	return &Guard{
		store:  store,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Evaluate applies the decision table to the store's current state.
func (g *Guard) Evaluate(capability Capability) Outcome {
	return Evaluate(g.store.Snapshot(), capability, g.adminRole())
}

// Protected returns middleware that triggers the identity probe, then
// renders the pending view, redirects to the fallback route, or lets the
// request through with the identity injected into the request context.
// Safe to stack on any number of routes: the probe is single-flight and a
// no-op once resolved.
func (g *Guard) Protected(capability Capability) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if err := g.store.Init(c.Context()); err != nil {
				return err
			}

			st := g.store.Snapshot()
			switch Evaluate(st, capability, g.adminRole()) {
			case OutcomePending:
				return c.Render(g.pendingView(), router.ViewContext{})
			case OutcomeDenied:
				if st.IsAuthenticated() {
					// forbidden, not anonymous; callers see one fallback
					g.logger.Debug("guard: capability not satisfied",
						"capability", string(capability), "user_id", st.Identity.ID)
				}
				return c.Redirect(g.fallbackRoute(), router.StatusSeeOther)
			}

			c.SetContext(WithIdentity(c.Context(), st.Identity))
			return hf(c)
		}
	}
}

func (g *Guard) adminRole() RoleCode {
	if g.cfg == nil {
		return ""
	}
	return g.cfg.GetAdminRole()
}

func (g *Guard) fallbackRoute() string {
	if g.cfg == nil || g.cfg.GetFallbackRoute() == "" {
		return "/login"
	}
	return g.cfg.GetFallbackRoute()
}

func (g *Guard) pendingView() string {
	if g.cfg == nil || g.cfg.GetPendingView() == "" {
		return "loading"
	}
	return g.cfg.GetPendingView()
}
