package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/storage"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// TransitionFunc observes a state change.
type TransitionFunc func(from, to State)

// Manager drives the session state machine.
// All methods are safe for concurrent use.
type Manager struct {
	store  storage.Store
	gate   biometric.Gate
	policy Policy
	prompt string
	logger logger.Logger

	onChallenge func(result string)

	mu        sync.Mutex
	state     State
	observers []TransitionFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithPolicy sets the biometric policy.
func WithPolicy(p Policy) Option {
	return func(m *Manager) {
		m.policy = p
	}
}

// WithPrompt sets the text shown by the biometric challenge.
func WithPrompt(prompt string) Option {
	return func(m *Manager) {
		m.prompt = prompt
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithChallengeObserver is called after each unlock attempt with
// "success", "failure" or "unavailable".
func WithChallengeObserver(fn func(result string)) Option {
	return func(m *Manager) {
		m.onChallenge = fn
	}
}

// NewManager creates a Manager in the Unknown state.
func NewManager(store storage.Store, gate biometric.Gate, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		gate:   gate,
		policy: PolicyAlways,
		prompt: biometric.DefaultPrompt,
		logger: logger.Default(),
		state:  Unknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// OnTransition registers an observer for state changes. Observers run
// synchronously after the change, outside the manager's lock.
func (m *Manager) OnTransition(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Route returns the route for the current state.
func (m *Manager) Route() Route {
	return RouteFor(m.State())
}

// IsAuthenticated reports whether protected operations are allowed.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// Require returns domain.ErrNotAuthenticated unless the session is
// Authenticated.
func (m *Manager) Require() error {
	switch s := m.State(); s {
	case Authenticated:
		return nil
	case AwaitingBiometric:
		return domain.ErrNotAuthenticated.WithDetails("session locked, run unlock first")
	default:
		return domain.ErrNotAuthenticated.WithDetails("no session, sign in first")
	}
}

// Start resolves the initial state from the token store. A read failure
// is logged and treated as an absent token.
func (m *Manager) Start(ctx context.Context) State {
	m.transition(CheckingToken)

	tok, ok, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		m.logger.Warn("token read failed, treating as signed out", "error", err)
		ok = false
	}

	if !ok || strings.TrimSpace(tok) == "" {
		m.transition(Unauthenticated)
		return Unauthenticated
	}
	m.transition(AwaitingBiometric)
	return AwaitingBiometric
}

// Unlock runs the biometric gate for a session awaiting it.
//
// On success the session becomes Authenticated. A failed challenge
// returns domain.ErrChallengeFailed and leaves the session and its token
// untouched so the user can retry. When the device cannot run a
// challenge the policy decides: PolicyAlways returns
// domain.ErrCapability, PolicyIfAvailable unlocks on the token alone.
func (m *Manager) Unlock(ctx context.Context) error {
	switch s := m.State(); s {
	case Authenticated:
		return nil
	case AwaitingBiometric:
	default:
		return domain.ErrNotAuthenticated.WithDetails("no stored session, sign in first")
	}

	_, err := biometric.Authenticate(ctx, m.gate, m.prompt)
	switch {
	case err == nil:
		m.observeChallenge("success")
	case errors.Is(err, domain.ErrCapability):
		m.observeChallenge("unavailable")
		if m.policy != PolicyIfAvailable {
			return err
		}
		m.logger.Warn("biometric unavailable, unlocking with stored token only", "policy", string(m.policy))
	default:
		m.observeChallenge("failure")
		return err
	}

	// A concurrent logout wins over a late challenge result.
	if !m.compareAndTransition(AwaitingBiometric, Authenticated) {
		return domain.ErrNotAuthenticated.WithDetails("session ended during unlock")
	}
	return nil
}

// SignIn persists a token issued by the catalog service. The session
// then awaits the biometric gate, as on every launch. A store failure is
// returned and the state is left unchanged.
func (m *Manager) SignIn(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrSignInFailed.WithDetails("empty token")
	}
	if err := m.store.Set(ctx, storage.KeyToken, token); err != nil {
		return err
	}
	m.transition(AwaitingBiometric)
	return nil
}

// Logout destroys the stored session and moves to Unauthenticated.
//
// The store is cleared; if that fails the token key alone is removed.
// The state changes even when both fail, and the last storage error is
// returned for reporting.
func (m *Manager) Logout(ctx context.Context) error {
	defer m.transition(Unauthenticated)

	err := m.store.Clear(ctx)
	if err == nil {
		return nil
	}
	m.logger.Warn("store clear failed, removing token", "error", err)

	if err := m.store.Remove(ctx, storage.KeyToken); err != nil {
		m.logger.Error("token removal failed", "error", err)
		return err
	}
	return nil
}

// HandleAuthRejected is the callback for the HTTP client's auth
// rejection event. It forces a logout.
func (m *Manager) HandleAuthRejected(ctx context.Context, cause error) {
	m.logger.Warn("session rejected by catalog service, signing out", "error", cause)
	_ = m.Logout(ctx)
}

func (m *Manager) observeChallenge(result string) {
	if m.onChallenge != nil {
		m.onChallenge(result)
	}
}

func (m *Manager) transition(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	observers := append([]TransitionFunc(nil), m.observers...)
	m.mu.Unlock()

	m.notify(observers, from, to)
}

func (m *Manager) compareAndTransition(from, to State) bool {
	m.mu.Lock()
	if m.state != from {
		m.mu.Unlock()
		return false
	}
	m.state = to
	observers := append([]TransitionFunc(nil), m.observers...)
	m.mu.Unlock()

	m.notify(observers, from, to)
	return true
}

func (m *Manager) notify(observers []TransitionFunc, from, to State) {
	if from == to {
		return
	}
	m.logger.Debug("session transition", "from", from.String(), "to", to.String())
	for _, fn := range observers {
		fn(from, to)
	}
}
