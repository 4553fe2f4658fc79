package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 実行環境の変数に左右されないよう空にしておく
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GO_ENV", "DB_DRIVER", "DATABASE_URL", "POSTGRES_PORT", "BCRYPT_COST",
		"JWT_EXPIRES_IN", "PRODUCT_CACHE_TTL", "AUTH_RATE_LIMIT", "REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 5*time.Minute, cfg.ProductCacheTTL)
	assert.False(t, cfg.IsProd())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_DayDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRES_IN", "3d")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiresIn)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad port":     {"POSTGRES_PORT", "abc"},
		"low bcrypt":   {"BCRYPT_COST", "4"},
		"bad duration": {"JWT_EXPIRES_IN", "soon"},
		"bad driver":   {"DB_DRIVER", "oracle"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SqliteNeedsDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DATABASE_URL", "file:dev.db")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
}
