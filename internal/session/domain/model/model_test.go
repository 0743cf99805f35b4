package model

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_DerivedPredicates(t *testing.T) {
	testCases := []struct {
		name       string
		session    Session
		isLoggedIn bool
		isAdmin    bool
	}{
		{name: "empty", session: Session{}, isLoggedIn: false, isAdmin: false},
		{name: "token without role", session: Session{Token: "t"}, isLoggedIn: true, isAdmin: false},
		{name: "member", session: Session{Token: "t", Role: "member"}, isLoggedIn: true, isAdmin: false},
		{name: "admin", session: Session{Token: "t", Role: "admin"}, isLoggedIn: true, isAdmin: true},
		{name: "admin casing is exact", session: Session{Token: "t", Role: "Admin"}, isLoggedIn: true, isAdmin: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.isLoggedIn, tc.session.IsLoggedIn())
			assert.Equal(t, tc.isAdmin, tc.session.IsAdmin())

			state := StateOf("tab-1", tc.session)
			assert.Equal(t, "tab-1", state.TabID)
			assert.Equal(t, tc.isLoggedIn, state.IsLoggedIn)
			assert.Equal(t, tc.isAdmin, state.IsAdmin)
		})
	}
}

func TestSession_TokenNeverSerialized(t *testing.T) {
	raw, err := json.Marshal(Session{Token: "secret", Role: "admin"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestTokenPayload_ClaimCasing(t *testing.T) {
	var lower TokenPayload
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin","sub":"42"}`), &lower))
	assert.Equal(t, "admin", lower.Role)
	assert.Empty(t, lower.LegacyRole)
	assert.Equal(t, "42", lower.Subject)

	var upper TokenPayload
	require.NoError(t, json.Unmarshal([]byte(`{"Role":"admin"}`), &upper))
	assert.Empty(t, upper.Role)
	assert.Equal(t, "admin", upper.LegacyRole)
}

func TestTokenPayload_ResolveRole(t *testing.T) {
	role, legacy, err := (&TokenPayload{Role: "admin", LegacyRole: "member"}).ResolveRole(true)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)
	assert.False(t, legacy)

	role, legacy, err = (&TokenPayload{LegacyRole: "member"}).ResolveRole(true)
	require.NoError(t, err)
	assert.Equal(t, "member", role)
	assert.True(t, legacy)

	_, _, err = (&TokenPayload{LegacyRole: "member"}).ResolveRole(false)
	assert.ErrorIs(t, err, ErrLegacyRoleClaim)

	_, _, err = (&TokenPayload{Role: "   "}).ResolveRole(true)
	assert.ErrorIs(t, err, ErrMissingRoleClaim)
}

func TestIsDecodeError(t *testing.T) {
	assert.True(t, IsDecodeError(fmt.Errorf("wrap: %w", ErrTokenExpired)))
	assert.True(t, IsDecodeError(ErrMissingRoleClaim))
	assert.False(t, IsDecodeError(ErrTabIDRequired))
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}.FullName())
	assert.Equal(t, "ada", User{Username: "ada"}.FullName())
}
