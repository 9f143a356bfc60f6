package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/authkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// State is the controller's lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRefreshing
	StateLoggedOut
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateLoggedOut:
		return "logged out"
	default:
		return "unknown"
	}
}

const (
	// DefaultRenewalLead is how long before access-token expiry the
	// background renewal fires.
	DefaultRenewalLead = time.Minute

	// DefaultRenewalTimeout bounds one renewal round-trip.
	DefaultRenewalTimeout = 10 * time.Second
)

// Options tune the controller. Zero values take the defaults above.
type Options struct {
	RenewalLead    time.Duration
	RenewalTimeout time.Duration
}

// Controller owns the client session. It renews the access token shortly
// before expiry, collapses concurrent renewal attempts into one API call,
// and treats any renewal failure as the end of the session: credentials
// are dropped and the API is never retried with the same refresh token.
//
// An explicit Logout always wins over an in-flight renewal: a renewal
// finishing after Logout is discarded, never applied.
type Controller struct {
	api    API
	store  credentials.Store
	logger logging.Logger
	opts   Options

	sf singleflight.Group

	mu    sync.Mutex
	state State
	email string
	pair  *TokenPair
	// gen increments on every logout/close; a renewal result is applied
	// only if gen is unchanged since the renewal started.
	gen   uint64
	timer *time.Timer
	// firedEagerly records that the last armed timer fired at zero delay,
	// so the next zero-delay arm is pushed out by minRenewalRearm.
	firedEagerly bool

	// nowFunc is a test seam.
	nowFunc func() time.Time
}

// NewController constructs a Controller over the given API binding and
// credential cache.
func NewController(api API, store credentials.Store, logger logging.Logger, opts Options) *Controller {
	if opts.RenewalLead <= 0 {
		opts.RenewalLead = DefaultRenewalLead
	}
	if opts.RenewalTimeout <= 0 {
		opts.RenewalTimeout = DefaultRenewalTimeout
	}
	return &Controller{
		api:     api,
		store:   store,
		logger:  logger,
		opts:    opts,
		state:   StateUnauthenticated,
		nowFunc: time.Now,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Email returns the account the session was opened for, if any.
func (c *Controller) Email() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.email
}

// Register creates an account. It does not open a session.
func (c *Controller) Register(ctx context.Context, email, password string) error {
	return c.api.Register(ctx, email, password)
}

// Login authenticates, adopts the returned pair and schedules renewal.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	pair, err := c.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.email = email
	c.firedEagerly = false
	c.adoptLocked(pair)
	c.mu.Unlock()

	c.persist(ctx, email, pair)
	return nil
}

// Start restores a session from the credential cache. It reports whether a
// session was restored; an unusable cache is cleared and is not an error.
func (c *Controller) Start(ctx context.Context) (bool, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if st == nil {
		return false, nil
	}
	if !st.RefreshExpiresAt.After(c.nowFunc()) {
		return false, c.store.Clear(ctx)
	}

	c.mu.Lock()
	c.email = st.Email
	c.firedEagerly = false
	// Adopt the refresh material with an already-expired access token, so
	// the first renewal mints a fresh one.
	c.state = StateAuthenticated
	c.pair = &TokenPair{
		RefreshToken:     st.RefreshToken,
		RefreshExpiresAt: st.RefreshExpiresAt,
	}
	c.mu.Unlock()

	if _, err := c.renew(ctx); err != nil {
		c.logger.Warn(ctx, "session restore failed", "error", err)
		return false, nil
	}
	return true, nil
}

// AccessToken returns a currently valid access token, renewing first when
// the cached one is missing or expired. Callers without a session get
// common.ErrUnauthorized.
func (c *Controller) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state == StateUnauthenticated || c.state == StateLoggedOut {
		c.mu.Unlock()
		return "", common.ErrUnauthorized
	}
	if c.state == StateAuthenticated && c.pair.AccessToken != "" && c.pair.AccessExpiresAt.After(c.nowFunc()) {
		token := c.pair.AccessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	pair, err := c.renew(ctx)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// Logout ends the session: the refresh token is revoked best-effort, the
// cache is wiped, and any renewal still in flight is discarded when it
// returns. Logging out twice is harmless.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	c.stopTimerLocked()
	var refresh string
	if c.pair != nil {
		refresh = c.pair.RefreshToken
	}
	c.pair = nil
	c.email = ""
	c.state = StateLoggedOut
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	if refresh != "" {
		if err := c.api.Logout(ctx, refresh); err != nil {
			c.logger.Warn(ctx, "server-side logout failed", "error", err)
		}
	}
	return nil
}

// Close stops background renewal. It does not touch the credential cache,
// so the session can be restored by the next Start.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopTimerLocked()
}

// renew exchanges the current refresh token for a fresh pair. Concurrent
// callers share one API call and one outcome.
func (c *Controller) renew(ctx context.Context) (*TokenPair, error) {
	c.mu.Lock()
	if c.state != StateAuthenticated && c.state != StateRefreshing {
		c.mu.Unlock()
		return nil, common.ErrUnauthorized
	}
	gen := c.gen
	c.state = StateRefreshing
	c.mu.Unlock()

	v, err, _ := c.sf.Do("renew", func() (any, error) {
		// The refresh token is read here, inside the coalescing point. A
		// trigger that arrives after a concurrent flight already adopted a
		// fresh pair gets that pair back instead of replaying the rotated
		// value against the server. The lead is added so a timer firing at
		// expiry minus lead is not mistaken for a duplicate.
		c.mu.Lock()
		if c.pair == nil {
			c.mu.Unlock()
			return nil, common.ErrUnauthorized
		}
		if c.pair.AccessToken != "" && c.pair.AccessExpiresAt.After(c.nowFunc().Add(c.opts.RenewalLead)) {
			pair := c.pair
			c.mu.Unlock()
			c.logger.Debug(ctx, "renewal already satisfied by a concurrent flight")
			return pair, nil
		}
		refresh := c.pair.RefreshToken
		c.mu.Unlock()

		rctx, cancel := context.WithTimeout(context.Background(), c.opts.RenewalTimeout)
		defer cancel()
		return c.api.Refresh(rctx, refresh)
	})

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		// Logout happened while the renewal was in flight. The fresh pair,
		// if any, must not resurrect the session; revoke it right away.
		if err == nil {
			if e := c.api.Logout(ctx, v.(*TokenPair).RefreshToken); e != nil {
				c.logger.Warn(ctx, "revoking late-renewed token failed", "error", e)
			}
		}
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		c.hardLogoutLocked()
		c.mu.Unlock()
		if e := c.store.Clear(ctx); e != nil {
			c.logger.Error(ctx, "clearing credential cache failed", "error", e)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrRenewalFailed, err)
	}

	pair := v.(*TokenPair)
	email := c.email
	applied := c.pair != pair
	if applied {
		c.adoptLocked(pair)
	} else {
		c.state = StateAuthenticated
	}
	c.mu.Unlock()

	if applied {
		c.logger.Debug(ctx, "access token renewed", "expires_at", pair.AccessExpiresAt)
		c.persist(ctx, email, pair)
	}
	return pair, nil
}

// adoptLocked installs a pair and schedules the next renewal. Caller holds mu.
func (c *Controller) adoptLocked(pair *TokenPair) {
	c.pair = pair
	c.state = StateAuthenticated
	c.scheduleLocked(pair.AccessExpiresAt)
}

// minRenewalRearm bounds how often the timer may re-fire when the token's
// validity never clears the renewal lead. Without it a short-lived pair
// would re-arm at zero delay after every successful renewal and rotate
// tokens in a tight loop.
const minRenewalRearm = time.Second

// scheduleLocked arms the renewal timer at expiry minus the lead, firing
// immediately when that instant has already passed. At most one immediate
// fire is allowed per adoption chain; the next one waits minRenewalRearm.
// Caller holds mu.
func (c *Controller) scheduleLocked(expiresAt time.Time) {
	c.stopTimerLocked()
	d := expiresAt.Sub(c.nowFunc()) - c.opts.RenewalLead
	if d <= 0 {
		if c.firedEagerly {
			d = minRenewalRearm
		} else {
			d = 0
		}
	}
	c.firedEagerly = d == 0
	c.logger.Debug(context.Background(), "renewal timer armed", "delay", d)
	gen := c.gen
	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}
		if _, err := c.renew(context.Background()); err != nil {
			c.logger.Warn(context.Background(), "background renewal failed", "error", err)
		}
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// hardLogoutLocked drops the session after a failed renewal. Caller holds mu.
func (c *Controller) hardLogoutLocked() {
	c.stopTimerLocked()
	c.gen++
	c.pair = nil
	c.email = ""
	c.firedEagerly = false
	c.state = StateUnauthenticated
}

func (c *Controller) persist(ctx context.Context, email string, pair *TokenPair) {
	err := c.store.Save(ctx, &credentials.State{
		Email:            email,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		c.logger.Error(ctx, "saving credential cache failed", "error", err)
	}
}
