package principals_test

import (
	"testing"

	"github.com/odrpress/go-session-server/principals"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := principals.HashPassword("Ppgdas@2025", 4)
	require.NoError(t, err)
	require.NotEqual(t, "Ppgdas@2025", hash)

	require.True(t, principals.CheckPasswordHash("Ppgdas@2025", hash))
	require.False(t, principals.CheckPasswordHash("wrong-password", hash))
}

func TestHashPasswordSaltIsPerRecord(t *testing.T) {
	first, err := principals.HashPassword("Ppgdas@2025", 4)
	require.NoError(t, err)
	second, err := principals.HashPassword("Ppgdas@2025", 4)
	require.NoError(t, err)

	// bcrypt embeds a fresh salt in every digest
	require.NotEqual(t, first, second)
	require.True(t, principals.CheckPasswordHash("Ppgdas@2025", first))
	require.True(t, principals.CheckPasswordHash("Ppgdas@2025", second))
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hash, err := principals.HashPassword("Ppgdas@2025", 99)
	require.NoError(t, err)
	require.True(t, principals.CheckPasswordHash("Ppgdas@2025", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Ab1", true},
		{"no uppercase", "secret123", true},
		{"no lowercase", "SECRET123", true},
		{"no number", "SecretPass", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := principals.ValidatePasswordStrength(tc.password)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCanLogin(t *testing.T) {
	p := &principals.Principal{Status: principals.StatusActive}
	require.True(t, p.CanLogin())

	p.Status = principals.StatusInactive
	require.False(t, p.CanLogin())

	p.Status = principals.StatusSuspended
	require.False(t, p.CanLogin())
}

func TestHasRole(t *testing.T) {
	p := &principals.Principal{Role: principals.RoleManager}
	require.True(t, p.HasRole(principals.RoleAdmin, principals.RoleManager))
	require.False(t, p.HasRole(principals.RoleClient))
	require.False(t, p.HasRole())
}
