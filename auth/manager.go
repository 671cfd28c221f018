package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Backend is the wire-protocol surface the Manager drives. *backend.Client
// satisfies it; tests substitute their own.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignUp(ctx context.Context, email, password string) (*backend.SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error)
}

// Deps holds all dependencies for the Manager.
type Deps struct {
	Config  backend.Config // Which backend project this build targets
	Backend Backend        // Wire client; may be nil when Config is unconfigured
	Store   session.Store  // Durable session persistence
	Cache   *token.Cache   // Shared last-known-token cell
}

// Manager owns the auth session lifecycle: it restores a persisted session
// at construction, sequences sign-in/up/out, refreshes expired sessions on
// demand, and is the single source of truth for the auth State.
//
// All mutating operations are serialized on one operation lock - the
// single-owner serialization domain - so no two transitions ever
// interleave. State reads go through a separate lock and never block behind
// a network call; consumers that want a non-blocking token snapshot read
// the token cache instead.
type Manager struct {
	deps     Deps
	verifier *token.Verifier
	log      zerolog.Logger
	nowTime  func() time.Time // nowTime function (injectable for testing)
	listener func(State)

	opMu sync.Mutex // serializes every mutating operation

	mu      sync.RWMutex // guards state and working
	state   State
	working bool
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the manager logger. The default discards everything.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithStateListener registers a callback invoked after every state
// transition, for UI layers that render the auth state. The callback runs
// on the transitioning goroutine and must not call back into the Manager's
// mutating operations.
func WithStateListener(listener func(State)) ManagerOption {
	return func(m *Manager) {
		m.listener = listener
	}
}

// NewManager initializes the Manager and performs the cold-start restore:
// an unconfigured backend disables auth entirely; otherwise the persisted
// session is adopted, refreshed in the background, or discarded.
func NewManager(deps Deps, options ...ManagerOption) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("[NewManager] Store is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("[NewManager] Cache is required")
	}
	if deps.Config.Configured() && deps.Backend == nil {
		return nil, errors.New("[NewManager] Backend is required when configured")
	}

	m := &Manager{
		deps:     deps,
		verifier: token.NewVerifier(deps.Config.TenantHost()),
		log:      zerolog.Nop(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}

	if !deps.Config.Configured() {
		m.setState(disabledState())
		return m, nil
	}
	m.restoreFromStore()
	return m, nil
}

// State returns the current auth state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsWorking reports whether a user-initiated sign-in/up is in flight.
func (m *Manager) IsWorking() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.working
}

// CurrentAccessToken returns the access token's last known value without
// triggering any I/O, sourced from the authoritative state.
func (m *Manager) CurrentAccessToken() (string, bool) {
	st := m.State()
	if st.Kind == StateSignedIn && st.Session != nil {
		return st.Session.AccessToken, true
	}
	return "", false
}

// SignIn authenticates with the backend and adopts the resulting session.
// Validation and backend failures surface as the Error state; the returned
// error carries the same information for programmatic callers.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	if m.disabled() {
		return NotConfiguredErr
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		m.setState(errorState(blankCredentialsMessage))
		return BlankCredentialsErr
	}
	m.setWorking(true)
	defer m.setWorking(false)

	m.setState(loadingState())
	newSession, err := m.deps.Backend.SignIn(ctx, email, password)
	if err != nil {
		m.setState(errorState(failureMessage(err)))
		return errors.Wrap(err, "[Manager.SignIn]")
	}
	if !m.adoptLocked(newSession) {
		return IncompatibleSessionErr
	}
	return nil
}

// SignUp registers a new account. When the backend auto-confirms it the
// session is adopted immediately; otherwise any local session is cleared
// and the state reports pending email verification.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	if m.disabled() {
		return NotConfiguredErr
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		m.setState(errorState(blankCredentialsMessage))
		return BlankCredentialsErr
	}
	m.setWorking(true)
	defer m.setWorking(false)

	m.setState(loadingState())
	result, err := m.deps.Backend.SignUp(ctx, email, password)
	if err != nil {
		m.setState(errorState(failureMessage(err)))
		return errors.Wrap(err, "[Manager.SignUp]")
	}
	if result.Session != nil {
		if !m.adoptLocked(result.Session) {
			return IncompatibleSessionErr
		}
		return nil
	}

	m.clearLocal()
	pendingEmail := result.Email
	if pendingEmail == "" {
		pendingEmail = email
	}
	m.setState(pendingVerificationState(pendingEmail))
	return nil
}

// SignOut notifies the backend best-effort and unconditionally clears the
// local session, cache and persisted record. A failed remote sign-out must
// never trap the user in a signed-in UI, so it is logged and swallowed.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.disabled() {
		return nil
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if st := m.State(); st.Kind == StateSignedIn && st.Session != nil {
		if err := m.deps.Backend.SignOut(ctx, st.Session.AccessToken); err != nil {
			m.log.Warn().Err(err).Msg("remote sign-out failed, clearing local session anyway")
		}
	}
	m.resetToSignedOutLocked()
	return nil
}

// DismissError leaves the Error state by re-deriving it from the persisted
// session. It never re-attempts the operation that caused the error.
func (m *Manager) DismissError() {
	if m.disabled() {
		return
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State().Kind != StateError {
		return
	}
	persisted := m.loadPersisted()
	if persisted != nil && !persisted.IsExpired(m.nowTime()) {
		m.deps.Cache.Set(persisted.AccessToken)
		m.setState(signedInState(persisted))
		return
	}
	m.setState(signedOutState())
}

// ValidAccessToken returns the access token to use right now, refreshing
// if necessary, or reports that no usable session exists. Racing callers
// are serialized: the second caller re-reads the refreshed state and
// returns without another network call.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, bool) {
	if m.disabled() {
		return "", false
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()

	now := m.nowTime()
	st := m.State()
	switch st.Kind {
	case StateSignedIn:
		if st.Session == nil {
			break
		}
		if !st.Session.IsExpired(now) {
			m.deps.Cache.Set(st.Session.AccessToken)
			return st.Session.AccessToken, true
		}
		if refreshed := m.refreshLocked(ctx, st.Session.RefreshToken); refreshed != nil {
			return refreshed.AccessToken, true
		}
	case StateLoading:
		if persisted := m.loadPersisted(); persisted != nil {
			if refreshed := m.refreshLocked(ctx, persisted.RefreshToken); refreshed != nil {
				return refreshed.AccessToken, true
			}
		}
	case StateDisabled:
		return "", false
	case StateSignedOut, StatePendingVerification, StateError:
		persisted := m.loadPersisted()
		if persisted == nil {
			break
		}
		if !m.verifier.Compatible(persisted.AccessToken) {
			break
		}
		if !persisted.IsExpired(now) {
			if m.adoptLocked(persisted) {
				return persisted.AccessToken, true
			}
			return "", false
		}
		if refreshed := m.refreshLocked(ctx, persisted.RefreshToken); refreshed != nil {
			return refreshed.AccessToken, true
		}
	}

	m.resetToSignedOutLocked()
	return "", false
}

// restoreFromStore runs the construction-time decision tree over the
// persisted session.
func (m *Manager) restoreFromStore() {
	persisted := m.loadPersisted()
	switch {
	case persisted == nil:
		m.deps.Cache.Clear()
		m.setState(signedOutState())
	case !m.verifier.Compatible(persisted.AccessToken):
		m.log.Debug().Msg("persisted session belongs to a different backend, discarding")
		m.clearLocal()
		m.setState(signedOutState())
	case !persisted.IsExpired(m.nowTime()):
		m.deps.Cache.Set(persisted.AccessToken)
		m.setState(signedInState(persisted))
	case persisted.HasRefreshToken():
		m.deps.Cache.Clear()
		m.setState(loadingState())
		go m.backgroundRestore(persisted.RefreshToken)
	default:
		m.clearLocal()
		m.setState(signedOutState())
	}
}

// backgroundRestore refreshes an expired persisted session after a cold
// start. Failures here reflect routine expiry with no active user action
// to report to, so they fall back silently to the signed-out state.
func (m *Manager) backgroundRestore(refreshToken string) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	// Another operation (e.g. ValidAccessToken) may have resolved the
	// loading state before this goroutine got the lock.
	if m.State().Kind != StateLoading {
		return
	}
	if refreshed := m.refreshLocked(context.Background(), refreshToken); refreshed == nil {
		m.resetToSignedOutLocked()
	}
}

// refreshLocked exchanges the refresh token for a new session and adopts
// it. With no usable refresh token it does nothing; a backend failure
// clears local state and resets to signed-out. Refresh failures are never
// retried - the user must re-authenticate. Caller must hold opMu.
func (m *Manager) refreshLocked(ctx context.Context, refreshToken string) *session.Session {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	refreshed, err := m.deps.Backend.RefreshSession(ctx, refreshToken)
	if err != nil {
		m.log.Debug().Err(err).Msg("session refresh failed")
		m.resetToSignedOutLocked()
		return nil
	}
	if !m.adoptLocked(refreshed) {
		return nil
	}
	return refreshed
}

// adoptLocked runs the adopt-session procedure after any successful
// sign-in/up/refresh: verify tenant compatibility, persist, publish to the
// cache and transition to signed-in. Caller must hold opMu.
func (m *Manager) adoptLocked(s *session.Session) bool {
	if err := m.verifier.Verify(s.AccessToken); err != nil {
		m.log.Warn().Err(err).Msg("rejecting incompatible session")
		m.clearLocal()
		m.setState(errorState(incompatibleSessionMessage))
		return false
	}
	if err := m.deps.Store.Save(s); err != nil {
		// Persistence failure degrades restart behavior but the live
		// session is still usable.
		m.log.Warn().Err(err).Msg("failed to persist session")
	}
	m.deps.Cache.Set(s.AccessToken)
	m.setState(signedInState(s))
	return true
}

// resetToSignedOutLocked clears every trace of the session locally.
func (m *Manager) resetToSignedOutLocked() {
	m.clearLocal()
	m.setState(signedOutState())
}

func (m *Manager) clearLocal() {
	if err := m.deps.Store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear persisted session")
	}
	m.deps.Cache.Clear()
}

func (m *Manager) loadPersisted() *session.Session {
	persisted, err := m.deps.Store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load persisted session")
		return nil
	}
	return persisted
}

func (m *Manager) disabled() bool {
	return m.State().Kind == StateDisabled
}

func (m *Manager) setState(st State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	m.log.Debug().Stringer("state", st.Kind).Msg("auth state transition")
	if m.listener != nil {
		m.listener(st)
	}
}

func (m *Manager) setWorking(working bool) {
	m.mu.Lock()
	m.working = working
	m.mu.Unlock()
}

// failureMessage extracts the message surfaced to the user for a failed
// backend call: the backend's own error body when there is one, otherwise
// the error text.
func failureMessage(err error) string {
	var requestFailed *backend.RequestFailedError
	if errors.As(err, &requestFailed) && requestFailed.Message != "" {
		return requestFailed.Message
	}
	return err.Error()
}
