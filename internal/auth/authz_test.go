package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	admin := &Identity{ID: "a1", Role: RoleAdmin}
	dentist := &Identity{ID: "d1", Role: RoleDentist}

	tests := []struct {
		name     string
		id       *Identity
		required []Role
		want     Decision
	}{
		{"absent identity", nil, []Role{RoleAdmin}, Unauthenticated},
		{"absent identity with empty set", nil, nil, Unauthenticated},
		{"role in set", admin, []Role{RoleAdmin}, Allow},
		{"role in larger set", dentist, StaffRoles, Allow},
		{"role not in set", dentist, []Role{RoleAdmin}, Forbidden},
		{"empty set denies everyone", admin, nil, Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.id, tt.required...))
		})
	}
}

func TestAuthorize_DistinguishesFailureKinds(t *testing.T) {
	assert.NoError(t, Authorize(&Identity{Role: RoleAdmin}, RoleAdmin))
	assert.ErrorIs(t, Authorize(nil, RoleAdmin), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(&Identity{Role: RolePatient}, RoleAdmin), ErrForbidden)
}

func TestAuthorizeNotSelf(t *testing.T) {
	admin := &Identity{ID: "a1", Role: RoleAdmin}

	assert.NoError(t, Authorize(admin, RoleAdmin))
	assert.ErrorIs(t, AuthorizeNotSelf(admin, "a1"), ErrCannotSelfTarget)
	assert.NoError(t, AuthorizeNotSelf(admin, "someone-else"))
	assert.ErrorIs(t, AuthorizeNotSelf(nil, "a1"), ErrUnauthenticated)
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"ADMIN":     RoleAdmin,
		"dentist":   RoleDentist,
		" staff ":   RoleAssistant,
		"assistant": RoleAssistant,
		"client":    RolePatient,
		"PATIENT":   RolePatient,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}
