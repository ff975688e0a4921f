// Package session manages the client-visible authentication lifecycle for
// portal gateways: a concurrency-safe session store, a render-time guard,
// and pluggable identity backends.
//
// Session store:
//   - Store is the single source of truth for the current identity, the
//     loading flag, and the initialized flag. Init runs the boot-time
//     identity probe exactly once no matter how many goroutines race into
//     it; late callers share the in-flight outcome. Probe failures resolve
//     the session as anonymous, never as an error surfaced to callers.
//   - Login and Logout drive explicit transitions. Logout bumps an internal
//     generation counter so a probe that was already in flight can never
//     resurrect the identity it fetched before the logout.
//
// Guarding:
//   - Guard evaluates a State against a Capability and yields pending,
//     denied, or granted. Protected wraps the decision as go-router
//     middleware that renders a pending view, redirects to the fallback
//     route, or injects the identity into the request context.
//
// Identity backends:
//   - IdentityService abstracts credential exchange and the current-identity
//     probe. APIIdentityService talks to an HTTP identity provider,
//     EmbeddedIdentityService verifies against a Bun-backed user store, and
//     TokenProbe decorates either with a local JWT fast path.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter the Store uses to
//     describe init, login, logout, and dropped-probe events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package session
