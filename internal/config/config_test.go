package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDotEnvLine(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"", "", "", false},
		{"# comment", "", "", false},
		{"REDIS_ADDR=localhost:6379", "REDIS_ADDR", "localhost:6379", true},
		{"export HTTP_PORT = 9090", "HTTP_PORT", "9090", true},
		{`REALTIME_CHANNEL="fridge:changes"`, "REALTIME_CHANNEL", "fridge:changes", true},
		{"DB_NAME='fridge'", "DB_NAME", "fridge", true},
		{"ENV=production # trailing", "ENV", "production", true},
		{"NOVALUE", "", "", false},
	}
	for _, tc := range cases {
		key, value, ok := parseDotEnvLine(tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.key, key, tc.line)
		assert.Equal(t, tc.value, value, tc.line)
	}
}

func TestApplyDotEnvKeepsExistingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FRIDGE_TEST_A=from-file\nFRIDGE_TEST_B=from-file\n"), 0o600))

	t.Setenv("FRIDGE_TEST_A", "from-env")
	t.Setenv("FRIDGE_TEST_B", "")
	require.NoError(t, os.Unsetenv("FRIDGE_TEST_B"))

	stats, err := applyDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.loaded)
	assert.Equal(t, 1, stats.skipped)
	assert.Equal(t, "from-env", os.Getenv("FRIDGE_TEST_A"))
	assert.Equal(t, "from-file", os.Getenv("FRIDGE_TEST_B"))
}

func TestEnvHelpersFallBack(t *testing.T) {
	t.Setenv("FRIDGE_TEST_DURATION", "nonsense")
	t.Setenv("FRIDGE_TEST_LIST", " a, ,b ")

	assert.Equal(t, 3*time.Second, getEnvDuration("FRIDGE_TEST_DURATION", 3*time.Second))
	assert.Equal(t, []string{"a", "b"}, getEnvList("FRIDGE_TEST_LIST", nil))
	assert.False(t, RedisConfig{Addr: "  "}.Enabled())
	assert.True(t, RedisConfig{Addr: "redis:6379"}.Enabled())
}

func TestGetDSNPrefersExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://x", Host: "h"}
	assert.Equal(t, "postgres://x", cfg.GetDSN())

	cfg = DBConfig{Host: "h", User: "u", Password: "p", Name: "n", Port: "1", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=1 sslmode=disable TimeZone=UTC", cfg.GetDSN())
}
