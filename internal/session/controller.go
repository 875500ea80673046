package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dmorales/projectboard/internal/api"
	"github.com/dmorales/projectboard/internal/credential"
	"github.com/dmorales/projectboard/internal/model"
)

// Status is the authentication state of the client.
type Status int

const (
	// StatusBootstrapping means a stored token is being validated at
	// startup.
	StatusBootstrapping Status = iota

	// StatusAuthenticated means a user is logged in.
	StatusAuthenticated

	// StatusAnonymous means no session is active.
	StatusAnonymous
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusBootstrapping:
		return "bootstrapping"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is the externally visible session state.
type State struct {
	Status Status
	User   *model.User
	Err    string
}

// Feed is the part of the realtime channel the controller drives:
// started when a session is established, stopped when it ends.
type Feed interface {
	Start(token string)
	Stop()
}

// Controller owns the session lifecycle: bootstrap from stored
// credentials, login, registration, logout, and profile updates. It
// is the only writer of session state and the only component that
// starts and stops the notification feed.
type Controller struct {
	auth   *api.AuthService
	client *api.Client
	tokens credential.Store
	feed   Feed
	log    *logrus.Entry

	mu    sync.Mutex
	state State

	// epoch increments whenever the session ends. Async operations
	// capture it at start and discard their result if a logout
	// happened in between, so a late response never revives a dead
	// session.
	epoch uint64

	updates chan State
}

// NewController creates a session controller. The feed may be nil in
// tests that do not exercise notifications.
func NewController(client *api.Client, tokens credential.Store, feed Feed, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Controller{
		auth:    api.NewAuthService(client),
		client:  client,
		tokens:  tokens,
		feed:    feed,
		log:     log.WithField("component", "session"),
		state:   State{Status: StatusBootstrapping},
		updates: make(chan State, 16),
	}
	client.OnSessionExpired(c.sessionExpired)
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates returns the stream of session state changes.
func (c *Controller) Updates() <-chan State {
	return c.updates
}

// Bootstrap validates stored credentials at startup. With a stored
// access token it fetches the current user; success authenticates,
// failure clears the stored pair and falls back to anonymous with a
// session-expired notice. With no stored token it goes anonymous
// silently.
func (c *Controller) Bootstrap(ctx context.Context) {
	access, _, err := c.tokens.Read()
	if err != nil {
		c.log.WithError(err).Warn("reading stored credentials")
		c.setAnonymous("")
		return
	}
	if access == "" {
		c.setAnonymous("")
		return
	}

	epoch := c.currentEpoch()
	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		c.log.WithError(err).Info("stored session rejected")
		if err := c.tokens.Clear(); err != nil {
			c.log.WithError(err).Warn("clearing credentials")
		}
		c.setAnonymousAt(epoch, "session expired")
		return
	}

	c.setAuthenticatedAt(epoch, user)
}

// Login authenticates with the given credentials. On success the
// token pair is persisted and the notification feed starts; on
// failure the server's message lands in the session error and the
// error is returned so the login form can react.
func (c *Controller) Login(ctx context.Context, creds model.Credentials) error {
	epoch := c.currentEpoch()

	resp, err := c.auth.Login(ctx, creds)
	if err != nil {
		c.setAnonymousAt(epoch, api.ErrorMessage(err))
		return err
	}
	return c.establishAt(epoch, resp)
}

// Register creates an account and starts its first session, with the
// same contract as Login.
func (c *Controller) Register(ctx context.Context, data model.RegisterData) error {
	epoch := c.currentEpoch()

	resp, err := c.auth.Register(ctx, data)
	if err != nil {
		c.setAnonymousAt(epoch, api.ErrorMessage(err))
		return err
	}
	return c.establishAt(epoch, resp)
}

// Logout ends the session. The server is notified best-effort; local
// state clears regardless, so the user is always logged out even
// when the server was unreachable.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.auth.Logout(ctx); err != nil {
		c.log.WithError(err).Warn("logout request failed; clearing local session anyway")
	}
	c.endSession("")
}

// UpdateUser applies a partial profile update. Success replaces the
// user snapshot without a state transition; failure records the
// error and returns it, leaving the authentication state untouched.
func (c *Controller) UpdateUser(ctx context.Context, fields map[string]interface{}) error {
	epoch := c.currentEpoch()

	user, err := c.auth.UpdateProfile(ctx, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return err
	}

	if err != nil {
		c.state.Err = api.ErrorMessage(err)
		c.publishLocked()
		return err
	}

	c.state.User = user
	c.state.Err = ""
	c.publishLocked()
	return nil
}

// ChangePassword replaces the account password. Failures are
// recorded like profile-update failures.
func (c *Controller) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	epoch := c.currentEpoch()

	err := c.auth.ChangePassword(ctx, change)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return err
	}
	if err != nil {
		c.state.Err = api.ErrorMessage(err)
		c.publishLocked()
		return err
	}
	c.state.Err = ""
	c.publishLocked()
	return nil
}

// ClearError clears the session error without any other change.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Err == "" {
		return
	}
	c.state.Err = ""
	c.publishLocked()
}

// sessionExpired is invoked by the transport when a token refresh was
// rejected. The stored credentials are already cleared at that point.
func (c *Controller) sessionExpired() {
	c.log.Info("session terminated by failed token refresh")
	c.endSession("session expired")
}

// establishAt persists the token pair from an auth response and
// transitions into the authenticated state.
func (c *Controller) establishAt(epoch uint64, resp *model.AuthResponse) error {
	if err := c.tokens.Save(resp.Access, resp.Refresh); err != nil {
		c.setAnonymousAt(epoch, "storing credentials failed")
		return err
	}
	user := resp.User
	c.setAuthenticatedAt(epoch, &user)
	return nil
}

// endSession clears credentials and transitions to anonymous,
// invalidating all in-flight operations.
func (c *Controller) endSession(errMsg string) {
	if err := c.tokens.Clear(); err != nil {
		c.log.WithError(err).Warn("clearing credentials")
	}

	c.mu.Lock()
	c.epoch++
	wasAuthenticated := c.state.Status == StatusAuthenticated
	c.state = State{Status: StatusAnonymous, Err: errMsg}
	c.publishLocked()
	c.mu.Unlock()

	if wasAuthenticated && c.feed != nil {
		c.feed.Stop()
	}
}

// currentEpoch snapshots the session epoch for a pending operation.
func (c *Controller) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// setAuthenticatedAt enters the authenticated state and starts the
// notification feed, unless the session ended while the operation
// was in flight.
func (c *Controller) setAuthenticatedAt(epoch uint64, user *model.User) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	c.state = State{Status: StatusAuthenticated, User: user}
	c.publishLocked()
	c.mu.Unlock()

	c.log.WithField("user", user.Username).Info("session established")
	if c.feed != nil {
		c.feed.Start(c.client.AccessToken())
	}
}

// setAnonymous enters the anonymous state unconditionally.
func (c *Controller) setAnonymous(errMsg string) {
	c.setAnonymousAt(c.currentEpoch(), errMsg)
}

// setAnonymousAt enters the anonymous state, stopping the feed if a
// session was active.
func (c *Controller) setAnonymousAt(epoch uint64, errMsg string) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return
	}
	wasAuthenticated := c.state.Status == StatusAuthenticated
	c.state = State{Status: StatusAnonymous, Err: errMsg}
	c.publishLocked()
	c.mu.Unlock()

	if wasAuthenticated && c.feed != nil {
		c.feed.Stop()
	}
}

// publishLocked emits the current state without blocking. The caller
// holds c.mu.
func (c *Controller) publishLocked() {
	select {
	case c.updates <- c.state:
	default:
		// A slow consumer misses intermediate states, never the final one.
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- c.state:
		default:
		}
	}
}
