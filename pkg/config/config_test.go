package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5005", cfg.NLU.BaseURL)
	assert.InDelta(t, 0.7, cfg.NLU.Threshold, 1e-9)
	assert.True(t, cfg.KeepMessages)
	assert.FileExists(t, path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": 1,
		"discord": {"token": "from-file"},
		"nlu": {"threshold": 0.5}
	}`), 0o644))

	t.Setenv("PARLEY_DISCORD_TOKEN", "from-env")
	t.Setenv("PARLEY_NLU_THRESHOLD", "0.9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.InDelta(t, 0.9, cfg.NLU.Threshold, 1e-9)

	// Environment values never leak back into the file.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env")
}

func TestConfig_TogglePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.ToggleDebug())
	assert.True(t, cfg.IsDebug())

	var onDisk map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, true, onDisk["debug"])

	assert.False(t, cfg.ToggleDebug())
}

func TestConfig_AdminsEmptyMeansEveryone(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.IsAdmin("anyone"))

	cfg.Admins = []string{"u1"}
	assert.True(t, cfg.IsAdmin("u1"))
	assert.False(t, cfg.IsAdmin("u2"))
}

func TestConfig_AddAdminsDeduplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.AddAdmins([]string{"u1", "u2", "u1"})
	assert.Equal(t, []string{"u1", "u2"}, cfg.GetAdmins())
}

func TestConfig_AddChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.IsChannel("c1"))
	cfg.AddChannel("c1")
	cfg.AddChannel("c1")
	assert.True(t, cfg.IsChannel("c1"))
	assert.Equal(t, []string{"c1"}, cfg.GetChannels())
}
