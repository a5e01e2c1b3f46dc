package auth

import (
	"context"
	"errors"
	"fmt"

	"alkansya/internal/api"
	"alkansya/internal/log"
	"alkansya/internal/metrics"
	"alkansya/internal/session"
)

// DefaultCurrency is stored when the login response names no currency
const DefaultCurrency = "PHP"

// Session events reported to the publisher and metrics
const (
	EventLogin   = "session.login"
	EventLogout  = "session.logout"
	EventExpired = "session.expired"
)

// Redirect reasons
const (
	ReasonNoToken       = "no_token"
	ReasonStoreError    = "store_unreadable"
	ReasonTokenExpired  = "token_not_likely_valid"
	ReasonConfirmFailed = "confirm_failed"
	ReasonAuthRequired  = "auth_required"
)

// DecisionKind says whether a caller may issue authenticated requests
type DecisionKind int

const (
	Redirect DecisionKind = iota
	Proceed
)

func (k DecisionKind) String() string {
	if k == Proceed {
		return "proceed"
	}
	return "redirect"
}

// Decision is the result of Enter. Token and Epoch are set only on Proceed.
type Decision struct {
	Kind     DecisionKind
	Token    string
	Currency string
	UserID   string
	Epoch    uint64
	Reason   string
}

// Proceed reports whether authenticated calls may be made
func (d Decision) Proceed() bool { return d.Kind == Proceed }

// TokenValidator is the pair of checks Enter runs
type TokenValidator interface {
	IsLikelyValid(token string) bool
	ConfirmValid(ctx context.Context, token string) bool
}

// Authenticator exchanges credentials for a token
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (api.LoginResult, error)
}

// EventPublisher is notified of session lifecycle changes
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event, userID, reason string) error
}

// Gate guards every protected operation
type Gate struct {
	sessions   *session.Manager
	validator  TokenValidator
	machine    *session.Machine
	auth       Authenticator
	events     EventPublisher
	metrics    metrics.Recorder
	logger     *log.Logger
	structured *log.StructuredLogger
}

// GateOption configures a Gate
type GateOption func(*Gate)

func WithAuthenticator(a Authenticator) GateOption {
	return func(g *Gate) { g.auth = a }
}

func WithEvents(p EventPublisher) GateOption {
	return func(g *Gate) { g.events = p }
}

func WithMetrics(r metrics.Recorder) GateOption {
	return func(g *Gate) {
		if r != nil {
			g.metrics = r
		}
	}
}

// NewGate creates a gate over sessions
func NewGate(sessions *session.Manager, validator TokenValidator, logger *log.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentGate)
	g := &Gate{
		sessions:   sessions,
		validator:  validator,
		machine:    session.NewMachine(session.Unauthenticated),
		metrics:    metrics.Nop{},
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current lifecycle state
func (g *Gate) State() session.State {
	return g.machine.State()
}

// Sessions returns the session manager behind the gate
func (g *Gate) Sessions() *session.Manager {
	return g.sessions
}

// Enter decides whether the stored session may be used. An absent token,
// a token that fails the local check, or one the server does not confirm
// clears the store and yields Redirect.
func (g *Gate) Enter(ctx context.Context) Decision {
	s, epoch, err := g.sessions.Snapshot(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to read session",
			log.FieldOperation, log.OpRead,
			log.FieldError, err.Error())
		return g.redirect(ctx, epoch, ReasonStoreError, "")
	}

	if !s.HasToken() {
		g.machine.Force(session.Unauthenticated)
		return g.decide(ctx, Decision{Kind: Redirect, Reason: ReasonNoToken})
	}

	// A token persisted by an earlier run counts as a login
	if g.machine.State() == session.Unauthenticated {
		g.machine.Force(session.Authenticated)
	}

	if !g.validator.IsLikelyValid(s.Token) {
		return g.redirect(ctx, epoch, ReasonTokenExpired, s.UserID)
	}
	if !g.validator.ConfirmValid(ctx, s.Token) {
		return g.redirect(ctx, epoch, ReasonConfirmFailed, s.UserID)
	}

	g.sessions.MarkAuthenticated(epoch)
	return g.decide(ctx, Decision{
		Kind:     Proceed,
		Token:    s.Token,
		Currency: s.Currency,
		UserID:   s.UserID,
		Epoch:    epoch,
	})
}

// Expire is called when an authenticated operation started at epoch
// learned the session is dead. The session moves to Expired and is
// cleared unless a newer one replaced it.
func (g *Gate) Expire(ctx context.Context, epoch uint64, reason string) {
	s, _, _ := g.sessions.Snapshot(ctx)
	g.expire(ctx, epoch, reason, s.UserID)
}

// Login authenticates and stores the new session
func (g *Gate) Login(ctx context.Context, creds api.Credentials) (session.Session, error) {
	if g.auth == nil {
		return session.Session{}, errors.New("login is not configured")
	}

	res, err := g.auth.Login(ctx, creds)
	if err != nil {
		g.logger.WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err.Error())
		return session.Session{}, err
	}

	currency := res.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	s := session.Session{
		Token:                    res.Token,
		Currency:                 currency,
		UserID:                   res.UserID,
		AuthenticatedThisProcess: true,
	}
	if err := g.sessions.Put(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("store session: %w", err)
	}

	if g.machine.State() == session.Expired {
		g.machine.Force(session.Unauthenticated)
	}
	if err := g.machine.Transition(session.Authenticated); err != nil {
		g.machine.Force(session.Authenticated)
	}

	g.logger.InfoContext(ctx, "Logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, s.UserID)
	g.event(ctx, EventLogin, s.UserID, "")
	return s, nil
}

// Logout clears the session
func (g *Gate) Logout(ctx context.Context) error {
	s, _, _ := g.sessions.Snapshot(ctx)
	if err := g.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	g.machine.Force(session.Unauthenticated)

	g.logger.InfoContext(ctx, "Logged out",
		log.FieldOperation, log.OpLogout,
		log.FieldUserID, s.UserID)
	g.event(ctx, EventLogout, s.UserID, "")
	return nil
}

func (g *Gate) redirect(ctx context.Context, epoch uint64, reason, userID string) Decision {
	g.expire(ctx, epoch, reason, userID)
	return g.decide(ctx, Decision{Kind: Redirect, Reason: reason})
}

func (g *Gate) expire(ctx context.Context, epoch uint64, reason, userID string) {
	err := g.sessions.ClearIf(ctx, epoch)
	switch {
	case errors.Is(err, session.ErrStaleSession):
		// a newer session replaced the dead one; leave it alone
		g.logger.InfoContext(ctx, "Session replaced before expiry, keeping newer session",
			log.FieldReason, reason)
		return
	case err != nil:
		// the token is still on disk, so the session has not ended yet
		g.logger.ErrorContext(ctx, "Failed to clear expired session",
			log.FieldOperation, log.OpClear,
			log.FieldReason, reason,
			log.FieldError, err.Error())
		return
	}

	if g.machine.Transition(session.Expired) != nil {
		g.machine.Force(session.Expired)
	}
	_ = g.machine.Transition(session.Unauthenticated)
	g.logger.WarnContext(ctx, "Session expired",
		log.FieldOperation, log.OpExpire,
		log.FieldReason, reason)
	g.event(ctx, EventExpired, userID, reason)
}

func (g *Gate) decide(ctx context.Context, d Decision) Decision {
	g.metrics.RecordGateDecision(d.Kind.String())
	g.structured.LogGateDecision(ctx, d.Kind.String(), d.Reason)
	return d
}

func (g *Gate) event(ctx context.Context, event, userID, reason string) {
	g.metrics.RecordSessionEvent(event)
	if g.events == nil {
		return
	}
	if err := g.events.PublishSessionEvent(ctx, event, userID, reason); err != nil {
		g.logger.WarnContext(ctx, "Failed to publish session event",
			log.FieldOperation, log.OpPublish,
			"event", event,
			log.FieldError, err.Error())
	}
}
