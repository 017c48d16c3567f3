package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RendersEnvironment(t *testing.T) {
	t.Setenv("KITTYGRAM_TEST_DSN", "postgres://cats:cats@db/cats")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
basePath: /api
database:
  driver: postgres
  source: {{ .KITTYGRAM_TEST_DSN }}
throttle:
  workingHours:
    start: 9
    end: 17
  rates:
    low_request: 5/minute
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/api", cfg.BasePath)
	assert.Equal(t, "postgres://cats:cats@db/cats", cfg.Database.Source)
	assert.Equal(t, 9, cfg.Throttle.WorkingHours.Start)
	assert.Equal(t, 17, cfg.Throttle.WorkingHours.End)
	assert.Equal(t, "5/minute", cfg.Throttle.Rates["low_request"])
	assert.Equal(t, "1000/day", cfg.Throttle.Rates["anon"], "unset scopes keep the default rate")
	assert.Equal(t, 10, cfg.Pagination.PageSize)
}

func TestLoadConfig_MissingPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("host: cats.example.com\n"))
	require.NoError(t, err)

	assert.Equal(t, "cats.example.com", cfg.Host)
	assert.Equal(t, 6, cfg.Throttle.WorkingHours.Start)
	assert.Equal(t, 3, cfg.Throttle.WorkingHours.End)
	assert.Equal(t, "1/minute", cfg.Throttle.Rates["low_request"])
}

func TestLoadConfig_UnsetVariablesRenderEmpty(t *testing.T) {
	for _, name := range []string{"KITTYGRAM_HOST", "DATABASE_URL", "PULSAR_URL", "REDIS_ADDR", "REDIS_PASSWORD", "JWT_SIGNING_KEY"} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	cfg, err := LoadConfig(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Empty(t, cfg.Auth.SigningKey)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Pulsar.URL)
	assert.Empty(t, cfg.Database.Source)
	assert.Equal(t, 1, cfg.Throttle.TrustedProxies)
	assert.Equal(t, "kittygram-audit", cfg.Pulsar.Subscription)
}
