package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/tennis-agent/pkg/player"
)

const memoryConfig = `
app_name: agents
database:
  driver: memory
players:
  names:
    - Rafael Nadal
    - Novak Djokovic
    - Rafael Jodar
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL",
		"TENNIS_AGENT_DB_DRIVER",
		"TENNIS_AGENT_ADDRESS",
		"TENNIS_AGENT_LOG_LEVEL",
		"TENNIS_AGENT_OTEL_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_Version(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "tennis-agent version dev")
}

func TestRoot_Help(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "player", "session", "context"} {
		assert.Contains(t, out, sub)
	}
}

func TestPlayerResolve(t *testing.T) {
	cfg := writeConfig(t, memoryConfig)

	out, err := run(t, "--config", cfg, "player", "resolve", "nadal")
	require.NoError(t, err)

	var got struct {
		Resolution player.Resolution `json:"resolution"`
		Matches    []player.Match    `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, player.StatusResolved, got.Resolution.Status)
	assert.Equal(t, "Rafael Nadal", got.Resolution.Name())
	require.NotEmpty(t, got.Matches)
	assert.Equal(t, "Rafael Nadal", got.Matches[0].Name)
}

func TestPlayerResolve_MultiWordArgs(t *testing.T) {
	cfg := writeConfig(t, memoryConfig)

	out, err := run(t, "--config", cfg, "player", "resolve", "novak", "djokovic")
	require.NoError(t, err)

	var got struct {
		Resolution player.Resolution `json:"resolution"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "novak djokovic", got.Resolution.Input)
	assert.Equal(t, "Novak Djokovic", got.Resolution.Name())
}

func TestSessionCommands_Memory(t *testing.T) {
	cfg := writeConfig(t, memoryConfig)

	_, err := run(t, "--config", cfg, "session", "list", "--user", "42")
	require.NoError(t, err)

	_, err = run(t, "--config", cfg, "session", "show", "--user", "42")
	require.ErrorIs(t, err, errNotFound)

	out, err := run(t, "--config", cfg, "session", "delete", "--user", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted": false}`, out)

	out, err = run(t, "--config", cfg, "session", "purge", "--user", "42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted": 0}`, out)

	_, err = run(t, "--config", cfg, "context", "show", "--user", "42")
	require.ErrorIs(t, err, errNotFound)
}

func TestSessionCommands_RequireUser(t *testing.T) {
	cfg := writeConfig(t, memoryConfig)

	_, err := run(t, "--config", cfg, "session", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestMigrate_MemoryDriver(t *testing.T) {
	cfg := writeConfig(t, memoryConfig)

	_, err := run(t, "--config", cfg, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres or sqlite")
}

func TestMigrate_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cli.db")
	cfg := writeConfig(t, "database:\n  driver: sqlite\n  dsn: "+dsn+"\n")

	out, err := run(t, "--config", cfg, "migrate", "version")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 0, "dirty": false}`, out)

	_, err = run(t, "--config", cfg, "migrate", "up")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "migrate", "version")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version": 4, "dirty": false}`, out)

	_, err = run(t, "--config", cfg, "migrate", "steps", "x")
	require.Error(t, err)
}
