// Package auth drives login, registration, and third-party sign-in.
// A successful chain is the only code path that mutates the session
// store; any step's failure aborts the remainder of the chain so no
// partial session state is ever observable.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/session"
)

// State is the auth orchestrator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAuthenticated
	StateFailed
)

// ValidationError is a local, pre-network failure. It never reaches the
// transport gateway.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Source feeds the transport gateway its bearer token. During a login
// chain the freshly issued token is held transiently so the profile
// fetch can authenticate before the session is persisted; at all other
// times the durable session store is authoritative.
type Source struct {
	store *session.Store

	mu        sync.Mutex
	transient string
}

// NewSource wraps the session store as the gateway's credential source.
func NewSource(store *session.Store) *Source {
	return &Source{store: store}
}

// Token implements api.CredentialSource.
func (s *Source) Token() string {
	s.mu.Lock()
	t := s.transient
	s.mu.Unlock()
	if t != "" {
		return t
	}
	return s.store.Token()
}

func (s *Source) setTransient(token string) {
	s.mu.Lock()
	s.transient = token
	s.mu.Unlock()
}

// Orchestrator owns the authentication state machine:
// Idle -> Submitting -> {Authenticated, Failed}. A failed attempt is not
// sticky; the next attempt starts from a clean slate.
type Orchestrator struct {
	client *api.Client
	store  *session.Store
	source *Source
	logger *slog.Logger

	state   State
	message string
}

// New creates an orchestrator. The source must be the same one the
// client was constructed with, so the login chain's transient token is
// visible to the profile fetch.
func New(client *api.Client, store *session.Store, source *Source, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{client: client, store: store, source: source, logger: logger}
}

// State returns the current lifecycle position.
func (o *Orchestrator) State() State { return o.state }

// Message returns the user-facing failure message, if any. Each failure
// replaces the previous message.
func (o *Orchestrator) Message() string { return o.message }

func (o *Orchestrator) begin() {
	o.state = StateSubmitting
	o.message = ""
}

func (o *Orchestrator) fail(err error, fallback string) error {
	o.state = StateFailed

	var ve *ValidationError
	if errors.As(err, &ve) {
		o.message = ve.Message
		return err
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		o.message = te.Detail(fallback)
	} else {
		o.message = fallback
	}
	return err
}

// completeLogin runs the shared tail of every sign-in flow: fetch the
// profile with the fresh token, then establish the session atomically.
// If the profile fetch fails the token is discarded and setSession is
// never called.
func (o *Orchestrator) completeLogin(ctx context.Context, token string) error {
	o.source.setTransient(token)
	defer o.source.setTransient("")

	profile, err := o.client.GetProfile(ctx)
	if err != nil {
		return err
	}

	user := session.User{ID: profile.ID, Username: profile.Username, Email: profile.Email}
	if err := o.store.Set(user, token); err != nil {
		return err
	}

	o.state = StateAuthenticated
	o.logger.Debug("session established", "username", user.Username)
	return nil
}

// LoginWithPassword signs in with a username (or email) and password.
// The login call yields only a credential; the profile fetch must also
// succeed before the state becomes Authenticated.
func (o *Orchestrator) LoginWithPassword(ctx context.Context, identifier, password string) error {
	o.begin()

	token, err := o.client.Login(ctx, identifier, password)
	if err != nil {
		return o.fail(err, "Login failed")
	}
	if err := o.completeLogin(ctx, token); err != nil {
		return o.fail(err, "Login failed")
	}
	return nil
}

// Register creates an account and immediately logs in with it.
// Registration alone does not establish a session; the auto-login chain
// does. The username is derived from the email's local part.
func (o *Orchestrator) Register(ctx context.Context, email, password, confirmPassword string) error {
	o.begin()

	if password != confirmPassword {
		return o.fail(&ValidationError{Message: "Passwords do not match"}, "")
	}
	username := Username(email)

	if err := o.client.Register(ctx, email, username, password); err != nil {
		return o.fail(err, "Registration failed")
	}

	token, err := o.client.Login(ctx, username, password)
	if err != nil {
		return o.fail(err, "Registration failed")
	}
	if err := o.completeLogin(ctx, token); err != nil {
		return o.fail(err, "Registration failed")
	}
	return nil
}

// LoginWithGoogleCredential exchanges a Google ID token for a local
// credential, then follows the same profile-then-session sequence as
// password login.
func (o *Orchestrator) LoginWithGoogleCredential(ctx context.Context, idToken string) error {
	o.begin()

	token, err := o.client.GoogleLogin(ctx, idToken)
	if err != nil {
		return o.fail(err, "Google login failed")
	}
	if err := o.completeLogin(ctx, token); err != nil {
		return o.fail(err, "Google login failed")
	}
	return nil
}

// Logout clears the session. Safe to call when no session exists.
func (o *Orchestrator) Logout() error {
	o.state = StateIdle
	o.message = ""
	if err := o.store.Clear(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Username derives the deterministic registration username from an
// email address: the substring before the first '@'.
func Username(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
