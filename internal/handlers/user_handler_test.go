package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/dentaheal/internal/audit"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store/memstore"
)

func TestDeactivateUser_SelfIsRejected(t *testing.T) {
	rec := &recordingAudit{}
	app := newTestApp(t, rec)

	res := app.call(t, http.MethodPatch, "/api/users/"+app.admin.ID.Hex()+"/deactivate", &app.admin, nil)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"Cannot deactivate your own account"}`, res.Body.String())

	still, err := app.users.FindByID(context.Background(), app.admin.ID.Hex())
	require.NoError(t, err)
	assert.True(t, still.Active, "operation must not execute")
	assert.Empty(t, rec.all())
}

func TestDeactivateUser_Other(t *testing.T) {
	rec := &recordingAudit{}
	app := newTestApp(t, rec)

	res := app.call(t, http.MethodPatch, "/api/users/"+app.dentist.ID.Hex()+"/deactivate", &app.admin, nil)
	require.Equal(t, http.StatusOK, res.Code)

	u, err := app.users.FindByID(context.Background(), app.dentist.ID.Hex())
	require.NoError(t, err)
	assert.False(t, u.Active)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUserDeactivate, entries[0].Action)
	assert.Equal(t, app.admin.ID.Hex(), entries[0].ActorUserID)
	assert.Equal(t, app.admin.Email, entries[0].ActorEmail)
	assert.Equal(t, app.dentist.ID.Hex(), entries[0].EntityID)

	// a deactivated account no longer resolves
	res = app.call(t, http.MethodGet, "/api/me", &app.dentist, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestDeactivateUser_NonAdmin(t *testing.T) {
	app := newTestApp(t, &recordingAudit{})

	res := app.call(t, http.MethodPatch, "/api/users/"+app.patient.ID.Hex()+"/deactivate", &app.dentist, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.JSONEq(t, `{"error":"Forbidden. Admin access required."}`, res.Body.String())

	res = app.call(t, http.MethodPatch, "/api/users/"+app.patient.ID.Hex()+"/deactivate", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, res.Body.String())
}

func TestDeactivateUser_UnknownTarget(t *testing.T) {
	app := newTestApp(t, &recordingAudit{})

	res := app.call(t, http.MethodPatch, "/api/users/665f1c2e9b1d4a0001a1b2c3/deactivate", &app.admin, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, res.Body.String())

	res = app.call(t, http.MethodPatch, "/api/users/not-an-id/deactivate", &app.admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

// The audit sink must not influence the primary response.
func TestDeactivateUser_AuditFailureLeavesResponseUnchanged(t *testing.T) {
	run := func(sink audit.Store) (int, string) {
		w := audit.NewWriter(sink, audit.Options{BufferSize: 4}, zerolog.Nop())
		defer w.Close()
		app := newTestApp(t, w)
		res := app.call(t, http.MethodPatch, "/api/users/"+app.dentist.ID.Hex()+"/deactivate", &app.admin, nil)
		return res.Code, res.Body.String()
	}

	failing := memstore.NewAuditLogs()
	failing.Err = errors.New("audit store unavailable")

	okCode, okBody := run(memstore.NewAuditLogs())
	failCode, failBody := run(failing)

	assert.Equal(t, http.StatusOK, okCode)
	assert.Equal(t, okCode, failCode)
	assert.Equal(t, okBody, failBody)
}

func TestChangeUserRole(t *testing.T) {
	rec := &recordingAudit{}
	app := newTestApp(t, rec)

	res := app.call(t, http.MethodPut, "/api/users/"+app.admin.ID.Hex()+"/role", &app.admin, map[string]string{"role": "DENTIST"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.JSONEq(t, `{"error":"Cannot change your own role"}`, res.Body.String())

	res = app.call(t, http.MethodPut, "/api/users/"+app.dentist.ID.Hex()+"/role", &app.admin, map[string]string{"role": "janitor"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = app.call(t, http.MethodPut, "/api/users/"+app.dentist.ID.Hex()+"/role", &app.admin, map[string]string{"role": "assistant"})
	require.Equal(t, http.StatusOK, res.Code)

	u, err := app.users.FindByID(context.Background(), app.dentist.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "ASSISTANT", u.Role)

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionRoleChanged, entries[0].Action)
	assert.Equal(t, "DENTIST", entries[0].PreviousValue)
	assert.Equal(t, "ASSISTANT", entries[0].NewValue)
}

func TestCreateAndResetPassword(t *testing.T) {
	rec := &recordingAudit{}
	app := newTestApp(t, rec)

	res := app.call(t, http.MethodPost, "/api/users", &app.admin, map[string]string{
		"fullName": "Voahangy",
		"email":    "Assistant@DentaHeal.test",
		"password": "short",
		"role":     "ASSISTANT",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "password must be at least 8 characters")

	res = app.call(t, http.MethodPost, "/api/users", &app.admin, map[string]string{
		"fullName": "Voahangy",
		"email":    "Assistant@DentaHeal.test",
		"password": "long-enough-1",
		"role":     "ASSISTANT",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.NotContains(t, res.Body.String(), "long-enough-1")

	created, err := app.users.FindByEmail(context.Background(), "assistant@dentaheal.test")
	require.NoError(t, err)

	res = app.call(t, http.MethodPost, "/api/users/"+created.ID.Hex()+"/reset-password", &app.admin, map[string]string{"password": "another-secret"})
	require.Equal(t, http.StatusOK, res.Code)

	entries := rec.all()
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionUserCreated, entries[0].Action)
	assert.Equal(t, models.ActionPasswordReset, entries[1].Action)
	assert.Nil(t, entries[1].PreviousValue)
	assert.Nil(t, entries[1].NewValue)
}

func TestListAuditLogs(t *testing.T) {
	app := newTestApp(t, &recordingAudit{})
	ctx := context.Background()
	require.NoError(t, app.auditLogs.Insert(ctx, &models.AuditEntry{Action: models.ActionLogin}))
	require.NoError(t, app.auditLogs.Insert(ctx, &models.AuditEntry{Action: models.ActionUserDeactivate}))

	res := app.call(t, http.MethodGet, "/api/audit-logs?action="+models.ActionLogin, &app.admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), models.ActionLogin)
	assert.NotContains(t, res.Body.String(), models.ActionUserDeactivate)

	res = app.call(t, http.MethodGet, "/api/audit-logs?limit=zero", &app.admin, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = app.call(t, http.MethodGet, "/api/audit-logs", &app.patient, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}
