package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "MONGO_URI", "JWT_SECRET", "CONFIG_FILE",
		"REACTION_TYPES", "GENRES", "THROTTLE_POST_CREATE", "THROTTLE_REACTION", "THROTTLE_REPORT",
		"THROTTLE_ANON", "THROTTLE_USER", "THROTTLE_LOGIN",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite://mitaina.db", cfg.DatabaseURL)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, []string{"like", "hatena", "correct", "collect"}, cfg.ReactionTypes)
	assert.Equal(t, Rate{Count: 10, Period: 24 * time.Hour}, cfg.Throttle.PostCreate)
	assert.Equal(t, Rate{Count: 300, Period: 24 * time.Hour}, cfg.Throttle.Reaction)
	assert.Equal(t, Rate{Count: 20, Period: 24 * time.Hour}, cfg.Throttle.Report)
	assert.Equal(t, Rate{Count: 200, Period: 24 * time.Hour}, cfg.Throttle.Anon)
	assert.Equal(t, Rate{Count: 2000, Period: 24 * time.Hour}, cfg.Throttle.User)
	assert.Equal(t, Rate{Count: 30, Period: time.Hour}, cfg.Throttle.Login)
	assert.True(t, cfg.ReactionSet().Contains("collect"))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "mitaina.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reaction_types: [like, hatena, correct]
genres: [movie, stage]
throttle:
  reaction: 5/minute
  login: 10/hour
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GENRES", "manga")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"like", "hatena", "correct"}, cfg.ReactionTypes)
	assert.False(t, cfg.ReactionSet().Contains("collect"))
	assert.Equal(t, []string{"manga"}, cfg.Genres)
	assert.Equal(t, Rate{Count: 5, Period: time.Minute}, cfg.Throttle.Reaction)
	assert.Equal(t, Rate{Count: 10, Period: time.Hour}, cfg.Throttle.Login)
	assert.Equal(t, Rate{Count: 200, Period: 24 * time.Hour}, cfg.Throttle.Anon)
}

func TestLoadRejectsUnknownReactionType(t *testing.T) {
	clearEnv(t)
	t.Setenv("REACTION_TYPES", "like,wow")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wow")
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prod-secret", cfg.JWTSecret)
}

func TestParseRate(t *testing.T) {
	cases := []struct {
		in   string
		want Rate
		ok   bool
	}{
		{"10/day", Rate{10, 24 * time.Hour}, true},
		{"30/hour", Rate{30, time.Hour}, true},
		{"2/30m", Rate{2, 30 * time.Minute}, true},
		{"0/day", Rate{}, false},
		{"ten/day", Rate{}, false},
		{"10", Rate{}, false},
		{"10/fortnight", Rate{}, false},
	}
	for _, c := range cases {
		got, err := ParseRate(c.in)
		if !c.ok {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestOpenSQLRejectsUnknownScheme(t *testing.T) {
	_, err := OpenSQL("mysql://localhost/mitaina")
	require.Error(t, err)
}
