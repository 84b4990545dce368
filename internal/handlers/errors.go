package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/store"
)

const (
	msgUnauthorized  = "Unauthorized"
	msgAdminRequired = "Forbidden. Admin access required."
	msgStaffRequired = "Permission denied."
	msgInternal      = "internal server error"
)

// messageError attaches the client-facing message to a sentinel error.
type messageError struct {
	err error
	msg string
}

func (e *messageError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *messageError) Unwrap() error { return e.err }

func withMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &messageError{err: err, msg: msg}
}

// messageFor attaches msg only when err is sentinel, so unrelated failures
// keep their default message.
func messageFor(err, sentinel error, msg string) error {
	if errors.Is(err, sentinel) {
		return withMessage(err, msg)
	}
	return err
}

func forbidden(err error, msg string) error { return messageFor(err, auth.ErrForbidden, msg) }
func notFound(err error, msg string) error  { return messageFor(err, store.ErrNotFound, msg) }
func selfTarget(err error, msg string) error {
	return messageFor(err, auth.ErrCannotSelfTarget, msg)
}

// respondError writes the JSON error envelope for err and aborts the chain.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, msg := h.resolveError(c, err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h *Handler) resolveError(c *gin.Context, err error) (int, string) {
	var me *messageError
	custom := errors.As(err, &me)
	pick := func(fallback string) string {
		if custom {
			return me.msg
		}
		return fallback
	}

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, pick("Forbidden.")
	case errors.Is(err, auth.ErrCannotSelfTarget):
		return http.StatusBadRequest, pick("Cannot perform this action on your own account")
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, pick("not found")
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, pick("invalid id")
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, pick("already exists")
	}

	var ve *validationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}

	h.log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("unhandled error")
	return http.StatusInternalServerError, msgInternal
}
