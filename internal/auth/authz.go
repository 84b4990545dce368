package auth

import (
	"errors"

	"github.com/harentsoaR/dentaheal/internal/metrics"
)

var (
	// ErrUnauthenticated means no identity was resolved.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means an identity was resolved but its role is not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrCannotSelfTarget means the actor tried a privileged operation on
	// their own account.
	ErrCannotSelfTarget = errors.New("cannot target own account")
)

// Decision is the outcome of a role check.
type Decision string

const (
	Allow           Decision = "allow"
	Unauthenticated Decision = "unauthenticated"
	Forbidden       Decision = "forbidden"
)

// Check decides whether id may act with one of the required roles.
// A missing identity is always a denial, never a skipped check.
func Check(id *Identity, required ...Role) Decision {
	if id == nil {
		return Unauthenticated
	}
	if id.Is(required...) {
		return Allow
	}
	return Forbidden
}

// Authorize is Check expressed as an error: nil, ErrUnauthenticated or
// ErrForbidden.
func Authorize(id *Identity, required ...Role) error {
	d := Check(id, required...)
	metrics.AuthzDecisionsTotal.WithLabelValues(string(d)).Inc()
	switch d {
	case Allow:
		return nil
	case Unauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

// AuthorizeNotSelf rejects operations where the actor targets their own
// account. Call it after Authorize has passed.
func AuthorizeNotSelf(id *Identity, targetID string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.ID == targetID {
		metrics.AuthzDecisionsTotal.WithLabelValues("self_target").Inc()
		return ErrCannotSelfTarget
	}
	return nil
}
