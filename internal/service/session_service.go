package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/feastflow/storefront/internal/domain/session"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// CartEraser empties the cart and its persisted copy on session changes.
type CartEraser interface {
	Erase(ctx context.Context) error
}

// SessionService owns the authentication lifecycle.
//
// The lock is never held across a gateway call: the gateway may invoke
// HandleUnauthorized synchronously. A per-session epoch is bumped on every
// login, logout and expiry, and a profile fetch started in an older epoch
// never applies its result.
type SessionService struct {
	gateway  outbound.Gateway
	storage  outbound.Storage
	cart     CartEraser
	notifier outbound.Notifier
	logger   *slog.Logger
	metrics  *Metrics

	restore singleflight.Group

	mu    sync.RWMutex
	sess  session.Session
	epoch uint64
}

// NewSessionService creates a SessionService in the unknown state. Call
// Restore to settle it.
func NewSessionService(gateway outbound.Gateway, storage outbound.Storage, cart CartEraser, notifier outbound.Notifier, logger *slog.Logger, metrics *Metrics) *SessionService {
	return &SessionService{
		gateway:  gateway,
		storage:  storage,
		cart:     cart,
		notifier: notifier,
		logger:   logger,
		metrics:  metrics,
		sess:     session.Session{State: session.StateUnknown},
	}
}

// Restore reconciles the persisted credential at startup. Without one the
// session settles to anonymous. Otherwise the profile is fetched once; on
// failure the credential is discarded and the session settles to
// anonymous. Concurrent calls share one fetch.
func (s *SessionService) Restore(ctx context.Context) error {
	_, err, _ := s.restore.Do("restore", func() (any, error) {
		return nil, s.doRestore(ctx)
	})
	return err
}

func (s *SessionService) doRestore(ctx context.Context) error {
	s.mu.RLock()
	state := s.sess.State
	s.mu.RUnlock()
	if state != session.StateUnknown {
		return nil
	}

	credential, err := s.persistedCredential(ctx)
	if err != nil {
		s.logger.Warn("failed to read persisted credential", "error", err)
	}
	if credential == "" {
		s.settleAnonymous(s.currentEpoch())
		return nil
	}

	s.mu.Lock()
	epoch := s.epoch
	s.sess.Credential = credential
	s.mu.Unlock()

	identity, err := s.gateway.GetProfile(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("discarding stale profile response")
		return nil
	}
	if err != nil {
		s.epoch++
		s.sess = session.Session{State: session.StateAnonymous}
		s.mu.Unlock()

		s.logger.Info("persisted credential rejected, signing out", "error", err)
		if derr := s.storage.Delete(ctx, outbound.KeyCredential); derr != nil {
			s.logger.Warn("failed to delete persisted credential", "error", derr)
		}
		s.metrics.authenticated(false)
		return fmt.Errorf("restore session: %w", err)
	}
	s.sess = session.Session{
		Credential: credential,
		Identity:   identity,
		State:      session.StateAuthenticated,
	}
	s.mu.Unlock()

	s.metrics.authenticated(true)
	s.logger.Debug("session restored", "user", identity.ID, "role", identity.Role)
	return nil
}

func (s *SessionService) persistedCredential(ctx context.Context) (string, error) {
	data, err := s.storage.Get(ctx, outbound.KeyCredential)
	if errors.Is(err, outbound.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *SessionService) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *SessionService) settleAnonymous(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch && s.sess.State == session.StateUnknown {
		s.sess = session.Session{State: session.StateAnonymous}
	}
}

// Login signs in. Input is validated before any gateway call. On failure
// the session and cart are left as they were.
func (s *SessionService) Login(ctx context.Context, email, password string) (*session.Identity, error) {
	form := session.LoginForm{Email: email, Password: password}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	res, err := s.gateway.Login(ctx, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, res); err != nil {
		return nil, err
	}
	s.notifier.Success("Welcome back!")
	return s.Identity(), nil
}

// Register creates an account and signs in with it.
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*session.Identity, error) {
	form := session.RegisterForm{Name: name, Email: email, Password: password}
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	res, err := s.gateway.Register(ctx, form.Name, form.Email, form.Password)
	if err != nil {
		return nil, err
	}
	if err := s.establish(ctx, res); err != nil {
		return nil, err
	}
	s.notifier.Success("Account created!")
	return s.Identity(), nil
}

func (s *SessionService) establish(ctx context.Context, res *outbound.AuthResult) error {
	if err := s.storage.Set(ctx, outbound.KeyCredential, []byte(res.Credential)); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	identity := res.Identity
	s.mu.Lock()
	s.epoch++
	s.sess = session.Session{
		Credential: res.Credential,
		Identity:   &identity,
		State:      session.StateAuthenticated,
	}
	s.mu.Unlock()

	s.metrics.authenticated(true)
	s.logger.Info("signed in", "user", identity.ID, "role", identity.Role)
	return nil
}

// Logout clears the credential, the identity, the persisted credential and
// the cart. It is idempotent; "Logged out" is shown only when a session
// existed.
func (s *SessionService) Logout(ctx context.Context) error {
	had := s.clear()
	if !had {
		if cred, _ := s.persistedCredential(ctx); cred != "" {
			had = true
		}
	}

	err := s.erase(ctx)
	if had {
		s.notifier.Success("Logged out")
	}
	return err
}

// HandleUnauthorized is the gateway's unauthorized hook. It clears the
// session like Logout and tells the user to sign in again.
func (s *SessionService) HandleUnauthorized() {
	if !s.clear() {
		return
	}
	s.logger.Info("credential expired or revoked")
	if err := s.erase(context.Background()); err != nil {
		s.logger.Warn("failed to erase session data", "error", err)
	}
	s.notifier.Error("Session expired, please log in again")
}

// clear drops the in-memory session and reports whether one existed.
func (s *SessionService) clear() bool {
	s.mu.Lock()
	had := s.sess.Credential != "" || s.sess.Identity != nil
	s.epoch++
	s.sess = session.Session{State: session.StateAnonymous}
	s.mu.Unlock()

	s.metrics.authenticated(false)
	return had
}

func (s *SessionService) erase(ctx context.Context) error {
	var errs []error
	if err := s.storage.Delete(ctx, outbound.KeyCredential); err != nil {
		errs = append(errs, fmt.Errorf("delete credential: %w", err))
	}
	if s.cart != nil {
		if err := s.cart.Erase(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Credential returns the bearer credential, or "" when signed out.
func (s *SessionService) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Credential
}

// Session returns a copy of the current session.
func (s *SessionService) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := s.sess
	if cp.Identity != nil {
		id := *cp.Identity
		cp.Identity = &id
	}
	return cp
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *SessionService) Identity() *session.Identity {
	return s.Session().Identity
}

// State returns the readiness of the session.
func (s *SessionService) State() session.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.State
}

// Role returns the identity's role, or "" without identity.
func (s *SessionService) Role() session.Role {
	return s.Session().Role()
}

// IsAdmin reports whether the signed-in user is an admin.
func (s *SessionService) IsAdmin() bool {
	return s.Identity().IsAdmin()
}

// Authorized returns whether a user is signed in and whether that is known yet.
func (s *SessionService) Authorized() (authorized, known bool) {
	return s.Session().Authorized()
}

var _ outbound.CredentialSource = (*SessionService)(nil)
