package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSkippedOutsideProduction(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{JWTSecret: "short", Production: false},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidateProductionJWTSecret(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{JWTSecret: "too-short", Production: true},
	}
	require.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "dev-only-jwt-secret-change-me-for-production"
	require.Error(t, cfg.Validate(), "the development fallback secret is never acceptable in production")

	cfg.Auth.JWTSecret = "a-real-secret-of-sufficient-length-123456"
	assert.NoError(t, cfg.Validate())
}

func TestValidateProductionDefaultPasswords(t *testing.T) {
	cfg := &Config{
		Auth: AuthConfig{
			JWTSecret:  "a-real-secret-of-sufficient-length-123456",
			Production: true,
		},
		Defaults: DefaultAccounts{
			Admin: AccountDefaults{
				Username:        "admin",
				Password:        "weakpass",
				PasswordFromEnv: true,
			},
		},
	}
	require.Error(t, cfg.Validate())

	cfg.Defaults.Admin.Password = "Str0ng!Enough#Pass"
	assert.NoError(t, cfg.Validate())
}

func TestRequireStrongPassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Str0ng!Enough#Pass", true},
		{"short1!A", false},
		{"nouppercase1!aaaa", false},
		{"NOLOWERCASE1!AAAA", false},
		{"NoDigitsHere!!aa", false},
		{"NoSymbolsHere12aa", false},
	}

	for _, tc := range cases {
		err := RequireStrongPassword(tc.password, "test password")
		if tc.ok {
			assert.NoError(t, err, tc.password)
		} else {
			assert.Error(t, err, tc.password)
		}
	}
}
