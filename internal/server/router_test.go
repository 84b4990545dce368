package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/dentaheal/internal/auth"
	"github.com/harentsoaR/dentaheal/internal/config"
	"github.com/harentsoaR/dentaheal/internal/handlers"
	"github.com/harentsoaR/dentaheal/internal/models"
	"github.com/harentsoaR/dentaheal/internal/store/memstore"
	"github.com/harentsoaR/dentaheal/internal/utils"
)

type stack struct {
	engine  *gin.Engine
	tokens  *utils.TokenIssuer
	admin   models.User
	dentist models.User
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:            gin.TestMode,
		CORSAllowedOrigins: []string{"https://dentaheal.example"},
		Auth: config.AuthConfig{
			SessionSecret:      "router-test-secret",
			SessionMaxAge:      time.Hour,
			SessionIdleTimeout: 10 * time.Minute,
			LoginPath:          "/login",
		},
	}
}

func newStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &stack{
		admin:   models.User{ID: primitive.NewObjectID(), FullName: "Admin", Email: "admin@dentaheal.test", Role: "ADMIN", Active: true},
		dentist: models.User{ID: primitive.NewObjectID(), FullName: "Dentist", Email: "dentist@dentaheal.test", Role: "DENTIST", Active: true},
		tokens:  utils.NewTokenIssuer("router-jwt", time.Hour),
	}
	users := memstore.NewUsers(s.admin, s.dentist)
	registry, err := auth.NewRegistry("1", []string{"/dashboard3", "/account"})
	require.NoError(t, err)
	resolver := auth.NewResolver(users, s.tokens, auth.ResolverConfig{})

	h := handlers.NewHandler(handlers.Deps{
		Users:        users,
		Settings:     memstore.NewSettings(nil),
		Appointments: memstore.NewAppointments(),
		AuditLogs:    memstore.NewAuditLogs(),
		Resolver:     resolver,
		Tokens:       s.tokens,
		Registry:     registry,
		LoginPath:    "/login",
		Log:          zerolog.Nop(),
	})

	engine, err := NewRouter(Options{
		Config:   testConfig(),
		Handler:  h,
		Resolver: resolver,
		Registry: registry,
		Log:      zerolog.Nop(),
	})
	require.NoError(t, err)
	s.engine = engine
	return s
}

func (s *stack) do(t *testing.T, method, target string, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if user != nil {
		token, err := s.tokens.Generate(user.ID.Hex(), user.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestRouter_AnonymousSettingsPageRedirects(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/dashboard3/settings", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect_to=%2Fdashboard3%2Fsettings", rec.Header().Get("Location"))
}

func TestRouter_GateCoversUnroutedProtectedPaths(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/account/billing?year=2024", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect_to=%2Faccount%2Fbilling%3Fyear%3D2024", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PublicRoutesPass(t *testing.T) {
	s := newStack(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/login", nil).Code)

	s.do(t, http.MethodGet, "/dashboard3", nil)
	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dentaheal_gate_redirects_total")
}

func TestRouter_APIAuthorization(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/users", &s.dentist)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden. Admin access required."}`, rec.Body.String())

	rec = s.do(t, http.MethodPut, "/api/settings", &s.dentist)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Forbidden. Admin access required."}`, rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/api/users/"+s.admin.ID.Hex()+"/deactivate", &s.admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Cannot deactivate your own account"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/users", &s.admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNewRouter_RejectsProtectedLoginPath(t *testing.T) {
	registry, err := auth.NewRegistry("1", []string{"/login"})
	require.NoError(t, err)

	_, err = NewRouter(Options{
		Config:   testConfig(),
		Handler:  handlers.NewHandler(handlers.Deps{Log: zerolog.Nop()}),
		Registry: registry,
		Log:      zerolog.Nop(),
	})
	assert.Error(t, err)
}
