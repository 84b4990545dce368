package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/logger"
	"github.com/harentsoaR/dentaheal/internal/metrics"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

const (
	SessionCookieName = "dh_session"

	sessionKeyUser       = "uid"
	sessionKeyIssuedAt   = "iat"
	sessionKeyLastActive = "seen"

	ctxIdentityKey = "auth.identity"
	ctxResolvedKey = "auth.resolved"
	ctxSourceKey   = "auth.source"
)

// UserLookup is the part of the user store the resolver needs.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ResolverConfig struct {
	MaxAge      time.Duration
	IdleTimeout time.Duration
}

// Resolver turns request credentials into an Identity. It fails closed:
// every problem (missing or tampered cookie, expired session, bad token,
// unknown or deactivated user, store outage) resolves to "no identity".
type Resolver struct {
	users  UserLookup
	tokens *utils.TokenIssuer
	cfg    ResolverConfig
	now    func() time.Time
}

func NewResolver(users UserLookup, tokens *utils.TokenIssuer, cfg ResolverConfig) *Resolver {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 12 * time.Hour
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	return &Resolver{users: users, tokens: tokens, cfg: cfg, now: time.Now}
}

// Resolve returns the identity for the request, or nil. The result is
// memoised on the gin context so later callers in the same request (edge
// gate, page guard, handlers) observe the same answer.
func (r *Resolver) Resolve(c *gin.Context) *Identity {
	if _, done := c.Get(ctxResolvedKey); done {
		return IdentityFrom(c)
	}

	id, source := r.fromSession(c)
	if id == nil {
		if bid, bsource := r.fromBearer(c); bsource != "" {
			id, source = bid, bsource
		}
	}
	if id == nil {
		if source == "" {
			source = "anonymous"
		} else {
			source = "rejected"
		}
	}
	metrics.SessionResolutionsTotal.WithLabelValues(source).Inc()

	c.Set(ctxResolvedKey, true)
	if id != nil {
		c.Set(ctxIdentityKey, id)
		c.Set(ctxSourceKey, source)
	}
	return id
}

// fromSession returns (identity, "cookie") on success, (nil, "cookie") when a
// session cookie was present but unusable and (nil, "") when there was none.
func (r *Resolver) fromSession(c *gin.Context) (*Identity, string) {
	session := defaultSession(c)
	if session == nil {
		return nil, ""
	}
	userID, ok := session.Get(sessionKeyUser).(string)
	if !ok || userID == "" {
		return nil, ""
	}

	now := r.now()
	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	lastActive := readUnix(session.Get(sessionKeyLastActive))
	if issuedAt.IsZero() || now.Sub(issuedAt) > r.cfg.MaxAge {
		return nil, "cookie"
	}
	if lastActive.IsZero() || now.Sub(lastActive) > r.cfg.IdleTimeout {
		return nil, "cookie"
	}

	return r.lookup(c.Request.Context(), userID), "cookie"
}

func (r *Resolver) fromBearer(c *gin.Context) (*Identity, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" || r.tokens == nil {
		return nil, "bearer"
	}
	claims, err := r.tokens.Validate(strings.TrimSpace(token))
	if err != nil {
		return nil, "bearer"
	}
	return r.lookup(c.Request.Context(), claims.UserID), "bearer"
}

func (r *Resolver) lookup(ctx context.Context, userID string) *Identity {
	log := logger.Get()

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			log.Warn().Err(err).Str("user_id", userID).Msg("identity lookup failed")
		}
		return nil
	}
	if !user.Active {
		return nil
	}
	role, err := ParseRole(user.Role)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("user has unusable role")
		return nil
	}
	return &Identity{
		ID:    user.ID.Hex(),
		Email: user.Email,
		Name:  user.FullName,
		Role:  role,
	}
}

// IdentityFrom returns the identity already resolved for this request.
func IdentityFrom(c *gin.Context) *Identity {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}

// StartSession writes a fresh cookie session for userID.
func StartSession(c *gin.Context, userID string) error {
	session := defaultSession(c)
	if session == nil {
		return errors.New("session middleware not installed")
	}
	now := time.Now().Unix()
	session.Clear()
	session.Set(sessionKeyUser, userID)
	session.Set(sessionKeyIssuedAt, now)
	session.Set(sessionKeyLastActive, now)
	return session.Save()
}

// TouchSession slides the idle timeout of the cookie session that resolved
// the current identity. It does nothing when the identity came from a bearer
// token, so a stale or foreign cookie riding along is never refreshed. It is
// kept out of Resolve so that resolution stays a pure read.
func TouchSession(c *gin.Context) {
	if c.GetString(ctxSourceKey) != "cookie" {
		return
	}
	session := defaultSession(c)
	if session == nil {
		return
	}
	id := IdentityFrom(c)
	if uid, _ := session.Get(sessionKeyUser).(string); id == nil || uid != id.ID {
		return
	}
	session.Set(sessionKeyLastActive, time.Now().Unix())
	if err := session.Save(); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Msg("session refresh failed")
	}
}

// EndSession clears the cookie session.
func EndSession(c *gin.Context) error {
	session := defaultSession(c)
	if session == nil {
		return nil
	}
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

// defaultSession is sessions.Default without the panic when the sessions
// middleware is absent.
func defaultSession(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func readUnix(v interface{}) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
