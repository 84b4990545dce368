package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/metrics"
)

// ResolveIdentity resolves the caller once, before any gate or handler runs,
// and slides the idle timeout of live cookie sessions.
func ResolveIdentity(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := resolver.Resolve(c); id != nil {
			auth.TouchSession(c)
		}
		c.Next()
	}
}

// EdgeGate redirects anonymous requests for protected paths to the login
// page, carrying the original request URI in redirect_to. Every other
// request passes through untouched.
func EdgeGate(registry *auth.Registry, resolver *auth.Resolver, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix, protected := registry.Match(c.Request.URL.Path)
		if !protected || resolver.Resolve(c) != nil {
			c.Next()
			return
		}

		metrics.GateRedirectsTotal.WithLabelValues(prefix, "edge").Inc()
		c.Redirect(http.StatusFound, auth.LoginURL(loginPath, requestURI(c)))
		c.Abort()
	}
}

// RequireIdentity rejects API calls without a resolved identity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.IdentityFrom(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequireRole admits only identities holding one of roles. forbidden is the
// message returned with the 403.
func RequireRole(forbidden string, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := auth.Authorize(auth.IdentityFrom(c), roles...)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": forbidden})
		}
	}
}

func requestURI(c *gin.Context) string {
	if c.Request.RequestURI != "" {
		return c.Request.RequestURI
	}
	return c.Request.URL.RequestURI()
}
