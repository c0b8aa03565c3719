// Package auth decides whether a browser may see the admin panel. A Gate
// starts in Checking, resolves to Authenticated or Unauthenticated from a
// session lookup, and then follows session change events until closed.
package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mevoq/site/backend"
	"github.com/mevoq/site/metrics"
)

// State is the gate's view of the browser's authentication.
type State uint8

const (
	Checking State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Source is a session source bound to one browser.
type Source interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	OnAuthStateChange(fn backend.AuthListener) (unsubscribe func())
}

type boundSource struct {
	auth   backend.Auth
	client string
}

// Bind scopes a backend.Auth to client.
func Bind(a backend.Auth, client string) Source {
	return boundSource{auth: a, client: client}
}

func (b boundSource) GetSession(ctx context.Context) (*backend.Session, error) {
	return b.auth.GetSession(ctx, b.client)
}

func (b boundSource) OnAuthStateChange(fn backend.AuthListener) func() {
	return b.auth.OnAuthStateChange(b.client, fn)
}

// Gate tracks one browser's authentication state.
type Gate struct {
	src Source
	log *zap.SugaredLogger

	mu          sync.Mutex
	state       State
	session     *backend.Session
	events      uint64
	updates     chan struct{}
	unsubscribe func()
	closed      bool
}

type GateOption func(*Gate)

func WithLogger(l *zap.SugaredLogger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGate returns a Gate in the Checking state.
func NewGate(src Source, opts ...GateOption) *Gate {
	g := &Gate{
		src:     src,
		log:     zap.NewNop().Sugar(),
		state:   Checking,
		updates: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start subscribes to session changes, then looks up the current session.
// A failed lookup counts as Unauthenticated. If an event arrives while the
// lookup is in flight, the event's state is kept.
func (g *Gate) Start(ctx context.Context) State {
	g.mu.Lock()
	if g.closed || g.unsubscribe != nil {
		st := g.state
		g.mu.Unlock()
		return st
	}
	g.unsubscribe = g.src.OnAuthStateChange(g.onEvent)
	seen := g.events
	g.mu.Unlock()

	s, err := g.src.GetSession(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.events != seen {
		return g.state
	}
	switch {
	case err != nil:
		g.log.Warnw("session lookup failed", "err", err)
		g.set(Unauthenticated, nil)
	case s == nil:
		g.set(Unauthenticated, nil)
	default:
		g.set(Authenticated, s)
	}
	return g.state
}

func (g *Gate) onEvent(event backend.AuthEvent, s *backend.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.events++
	switch event {
	case backend.SignedIn, backend.TokenRefreshed:
		if s != nil {
			g.set(Authenticated, s)
			return
		}
		g.set(Unauthenticated, nil)
	case backend.SignedOut:
		g.set(Unauthenticated, nil)
	}
}

// set must be called with mu held.
func (g *Gate) set(st State, s *backend.Session) {
	g.session = s
	if st == g.state {
		return
	}
	g.state = st
	metrics.GateTransitions.WithLabelValues(st.String()).Inc()
	select {
	case g.updates <- struct{}{}:
	default:
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the current session, or nil unless Authenticated.
func (g *Gate) Session() *backend.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Updates signals state changes. Signals coalesce; read State after each.
// The channel is closed by Close.
func (g *Gate) Updates() <-chan struct{} {
	return g.updates
}

// Close releases the subscription. It is safe to call more than once.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	unsubscribe := g.unsubscribe
	close(g.updates)
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
