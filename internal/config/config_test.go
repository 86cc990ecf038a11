package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into a fresh directory so no stray .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(orig) })
	return dir
}

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"COACH_DB_PATH", "RIOT_API_KEY", "RIOT_PLATFORM", "ANTHROPIC_API_KEY",
		"ANTHROPIC_MODEL", "LOG_LEVEL", "LOG_JSON", "ANALYSIS_MATCHES", "ANALYSIS_WORKERS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)
	assert.Equal(t, "na1", cfg.Riot.Platform)
	assert.Equal(t, 20, cfg.Riot.RequestsPerSecond)
	assert.Equal(t, 100, cfg.Riot.RequestsPerTwoMinutes)
	assert.Equal(t, 3, cfg.Riot.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Riot.Timeout)
	assert.Equal(t, 1500, cfg.Anthropic.MaxTokens)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Equal(t, 20, cfg.Analysis.Matches)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, int64(30000), cfg.Analysis.WardLookbackMs)
	assert.Equal(t, 1500.0, cfg.Analysis.WardRadius)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	path := filepath.Join(dir, "lolcoach.yaml")
	yaml := `
db_path: /tmp/coach-test.db
riot:
  platform: euw1
  timeout: 10s
log:
  level: debug
analysis:
  matches: 10
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("RIOT_PLATFORM", "kr")
	t.Setenv("RIOT_API_KEY", "RGAPI-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/coach-test.db", cfg.DBPath)
	assert.Equal(t, "kr", cfg.Riot.Platform)
	assert.Equal(t, "RGAPI-env", cfg.Riot.APIKey)
	assert.Equal(t, 10*time.Second, cfg.Riot.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Analysis.Matches)

	opts := cfg.PipelineOptions()
	assert.Equal(t, 10, opts.Matches)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 1500.0, opts.Deaths.WardRadius)

	ro := cfg.RiotOptions()
	assert.Equal(t, "kr", ro.Platform)
	assert.Equal(t, "RGAPI-env", ro.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)
	clearEnv(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RIOT_API_KEY=RGAPI-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RIOT_API_KEY") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "RGAPI-dotenv", cfg.Riot.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"ANALYSIS_MATCHES": "0",
		"ANALYSIS_WORKERS": "0",
		"RIOT_PLATFORM":    "moon1",
		"LOG_LEVEL":        "chatty",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			chdir(t)
			clearEnv(t)
			t.Setenv(k, v)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	chdir(t)
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
