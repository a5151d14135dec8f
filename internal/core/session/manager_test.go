package session

import (
	"context"
	"errors"
	"testing"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/storage"
	"github.com/yndnr/booklend-go/internal/telemetry/logger"
)

// fakeGate is a scripted biometric gate.
type fakeGate struct {
	capability biometric.Capability
	results    []biometric.Result
	challenges int
}

func (g *fakeGate) QueryCapability(context.Context) (biometric.Capability, error) {
	return g.capability, nil
}

func (g *fakeGate) Challenge(context.Context, string) (biometric.Result, error) {
	g.challenges++
	if len(g.results) == 0 {
		return biometric.Result{Success: false, Reason: "no script"}, nil
	}
	r := g.results[0]
	g.results = g.results[1:]
	return r, nil
}

func capableGate(results ...biometric.Result) *fakeGate {
	return &fakeGate{
		capability: biometric.Capability{HardwarePresent: true, BiometricEnrolled: true},
		results:    results,
	}
}

// failingStore fails selected operations.
type failingStore struct {
	storage.Store
	getErr, setErr, clearErr, removeErr error
	removed                             bool
}

func (s *failingStore) Get(ctx context.Context, k storage.Key) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.Store.Get(ctx, k)
}

func (s *failingStore) Set(ctx context.Context, k storage.Key, v string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, k, v)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Store.Clear(ctx)
}

func (s *failingStore) Remove(ctx context.Context, k storage.Key) error {
	s.removed = true
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.Store.Remove(ctx, k)
}

func newManager(t *testing.T, store storage.Store, gate biometric.Gate, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return NewManager(store, gate, opts...)
}

func storeWithToken(t *testing.T, tok string) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	if err := s.Set(context.Background(), storage.KeyToken, tok); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestManager_StoredTokenAndSuccessfulChallenge(t *testing.T) {
	ctx := context.Background()
	gate := capableGate(biometric.Result{Success: true})
	m := newManager(t, storeWithToken(t, "abc123"), gate)

	if got := m.Start(ctx); got != AwaitingBiometric {
		t.Fatalf("Start() = %s, want AwaitingBiometric", got)
	}
	if m.Route() != RouteUnlock {
		t.Errorf("Route() = %s, want unlock", m.Route())
	}
	if err := m.Require(); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Require() before unlock = %v, want ErrNotAuthenticated", err)
	}

	if err := m.Unlock(ctx); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if m.State() != Authenticated || !m.IsAuthenticated() {
		t.Errorf("State() = %s, want Authenticated", m.State())
	}
	if m.Route() != RouteCatalog {
		t.Errorf("Route() = %s, want catalog", m.Route())
	}
	if err := m.Require(); err != nil {
		t.Errorf("Require() error = %v", err)
	}
}

func TestManager_NoTokenNeverChallenges(t *testing.T) {
	ctx := context.Background()
	gate := capableGate(biometric.Result{Success: true})
	m := newManager(t, storage.NewMemoryStore(), gate)

	if got := m.Start(ctx); got != Unauthenticated {
		t.Fatalf("Start() = %s, want Unauthenticated", got)
	}
	if m.Route() != RouteSignIn {
		t.Errorf("Route() = %s, want signin", m.Route())
	}

	if err := m.Unlock(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Unlock() error = %v, want ErrNotAuthenticated", err)
	}
	if gate.challenges != 0 {
		t.Errorf("challenges = %d, want 0", gate.challenges)
	}
}

func TestManager_EmptyTokenIsAbsent(t *testing.T) {
	m := newManager(t, storeWithToken(t, "  "), capableGate())
	if got := m.Start(context.Background()); got != Unauthenticated {
		t.Errorf("Start() = %s, want Unauthenticated", got)
	}
}

func TestManager_TokenReadFailure(t *testing.T) {
	store := &failingStore{Store: storeWithToken(t, "abc123"), getErr: domain.ErrStorage}
	m := newManager(t, store, capableGate())

	if got := m.Start(context.Background()); got != Unauthenticated {
		t.Errorf("Start() = %s, want Unauthenticated", got)
	}
}

func TestManager_FailedChallengeKeepsToken(t *testing.T) {
	ctx := context.Background()
	store := storeWithToken(t, "abc123")
	gate := capableGate(biometric.Result{Reason: "cancelled"}, biometric.Result{Success: true})
	m := newManager(t, store, gate)
	m.Start(ctx)

	err := m.Unlock(ctx)
	if !errors.Is(err, domain.ErrChallengeFailed) {
		t.Fatalf("Unlock() error = %v, want ErrChallengeFailed", err)
	}
	if m.State() != AwaitingBiometric {
		t.Errorf("State() = %s, want AwaitingBiometric", m.State())
	}
	if tok, ok, _ := store.Get(ctx, storage.KeyToken); !ok || tok != "abc123" {
		t.Errorf("token = %q (present %v), want abc123 kept", tok, ok)
	}

	// The user may retry.
	if err := m.Unlock(ctx); err != nil {
		t.Fatalf("retry Unlock() error = %v", err)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %s, want Authenticated", m.State())
	}
}

func TestManager_CapabilityPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		gate      *fakeGate
		wantErr   error
		wantState State
	}{
		{
			name:      "always without hardware",
			policy:    PolicyAlways,
			gate:      &fakeGate{capability: biometric.Capability{BiometricEnrolled: true}},
			wantErr:   domain.ErrCapability,
			wantState: AwaitingBiometric,
		},
		{
			name:      "always without enrolment",
			policy:    PolicyAlways,
			gate:      &fakeGate{capability: biometric.Capability{HardwarePresent: true}},
			wantErr:   domain.ErrCapability,
			wantState: AwaitingBiometric,
		},
		{
			name:      "if_available without hardware",
			policy:    PolicyIfAvailable,
			gate:      &fakeGate{},
			wantState: Authenticated,
		},
		{
			name:      "if_available still challenges capable devices",
			policy:    PolicyIfAvailable,
			gate:      capableGate(biometric.Result{Reason: "no match"}),
			wantErr:   domain.ErrChallengeFailed,
			wantState: AwaitingBiometric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newManager(t, storeWithToken(t, "abc123"), tt.gate, WithPolicy(tt.policy))
			m.Start(ctx)

			err := m.Unlock(ctx)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unlock() error = %v, want %v", err, tt.wantErr)
			}
			if m.State() != tt.wantState {
				t.Errorf("State() = %s, want %s", m.State(), tt.wantState)
			}
			if !tt.gate.capability.Available() && tt.gate.challenges != 0 {
				t.Errorf("challenge ran on an incapable device")
			}
		})
	}
}

func TestManager_SignIn(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	m := newManager(t, store, capableGate(biometric.Result{Success: true}))
	m.Start(ctx)

	if err := m.SignIn(ctx, "abc123"); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if m.State() != AwaitingBiometric {
		t.Errorf("State() = %s, want AwaitingBiometric", m.State())
	}
	if tok, _, _ := store.Get(ctx, storage.KeyToken); tok != "abc123" {
		t.Errorf("stored token = %q, want abc123", tok)
	}

	if err := m.SignIn(ctx, ""); !errors.Is(err, domain.ErrSignInFailed) {
		t.Errorf("SignIn(\"\") error = %v, want ErrSignInFailed", err)
	}
}

func TestManager_SignInStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore(), setErr: domain.ErrStorage}
	m := newManager(t, store, capableGate())
	m.Start(ctx)

	if err := m.SignIn(ctx, "abc123"); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("SignIn() error = %v, want ErrStorage", err)
	}
	if m.State() != Unauthenticated {
		t.Errorf("State() = %s, want Unauthenticated", m.State())
	}
}

func TestManager_Logout(t *testing.T) {
	ctx := context.Background()
	store := storeWithToken(t, "abc123")
	m := newManager(t, store, capableGate(biometric.Result{Success: true}))
	m.Start(ctx)
	_ = m.Unlock(ctx)

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if m.State() != Unauthenticated {
		t.Errorf("State() = %s, want Unauthenticated", m.State())
	}
	if _, ok, _ := store.Get(ctx, storage.KeyToken); ok {
		t.Error("token should be absent after Logout()")
	}
}

func TestManager_LogoutFallsBackToRemove(t *testing.T) {
	ctx := context.Background()
	inner := storeWithToken(t, "abc123")
	store := &failingStore{Store: inner, clearErr: domain.ErrStorage}
	m := newManager(t, store, capableGate())
	m.Start(ctx)

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if !store.removed {
		t.Error("Logout() should fall back to Remove")
	}
	if _, ok, _ := inner.Get(ctx, storage.KeyToken); ok {
		t.Error("token should be absent after fallback Remove")
	}
}

func TestManager_LogoutTransitionsEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storeWithToken(t, "abc123"), clearErr: domain.ErrStorage, removeErr: domain.ErrStorage}
	m := newManager(t, store, capableGate(biometric.Result{Success: true}))
	m.Start(ctx)
	_ = m.Unlock(ctx)

	if err := m.Logout(ctx); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Logout() error = %v, want ErrStorage", err)
	}
	if m.State() != Unauthenticated {
		t.Errorf("State() = %s, want Unauthenticated", m.State())
	}
}

func TestManager_HandleAuthRejected(t *testing.T) {
	ctx := context.Background()
	store := storeWithToken(t, "abc123")
	m := newManager(t, store, capableGate(biometric.Result{Success: true}))
	m.Start(ctx)
	_ = m.Unlock(ctx)

	m.HandleAuthRejected(ctx, domain.ErrAuthRejected)

	if m.State() != Unauthenticated {
		t.Errorf("State() = %s, want Unauthenticated", m.State())
	}
	if _, ok, _ := store.Get(ctx, storage.KeyToken); ok {
		t.Error("token should be absent after auth rejection")
	}
}

func TestManager_Observers(t *testing.T) {
	ctx := context.Background()
	var transitions []string
	var challenges []string

	m := newManager(t, storeWithToken(t, "abc123"), capableGate(biometric.Result{Success: true}),
		WithChallengeObserver(func(r string) { challenges = append(challenges, r) }))
	m.OnTransition(func(from, to State) {
		transitions = append(transitions, from.String()+">"+to.String())
	})

	m.Start(ctx)
	_ = m.Unlock(ctx)
	_ = m.Logout(ctx)
	_ = m.Logout(ctx)

	want := []string{
		"Unknown>CheckingToken",
		"CheckingToken>AwaitingBiometric",
		"AwaitingBiometric>Authenticated",
		"Authenticated>Unauthenticated",
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, transitions[i], want[i])
		}
	}
	if len(challenges) != 1 || challenges[0] != "success" {
		t.Errorf("challenges = %v, want [success]", challenges)
	}
}

func TestManager_UnlockWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	gate := capableGate(biometric.Result{Success: true})
	m := newManager(t, storeWithToken(t, "abc123"), gate)
	m.Start(ctx)
	_ = m.Unlock(ctx)

	if err := m.Unlock(ctx); err != nil {
		t.Errorf("Unlock() when authenticated error = %v", err)
	}
	if gate.challenges != 1 {
		t.Errorf("challenges = %d, want 1", gate.challenges)
	}
}

func TestStateAndRouteStrings(t *testing.T) {
	tests := []struct {
		state State
		name  string
		route Route
	}{
		{Unknown, "Unknown", RouteNone},
		{CheckingToken, "CheckingToken", RouteNone},
		{AwaitingBiometric, "AwaitingBiometric", RouteUnlock},
		{Authenticated, "Authenticated", RouteCatalog},
		{Unauthenticated, "Unauthenticated", RouteSignIn},
	}

	for _, tt := range tests {
		if tt.state.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.state.String(), tt.name)
		}
		if RouteFor(tt.state) != tt.route {
			t.Errorf("RouteFor(%s) = %s, want %s", tt.state, RouteFor(tt.state), tt.route)
		}
	}
	if State(42).String() != "State(42)" {
		t.Errorf("State(42).String() = %q", State(42).String())
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyAlways, false},
		{"always", PolicyAlways, false},
		{"IF_AVAILABLE", PolicyIfAvailable, false},
		{"never", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
