package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Version int      `json:"version"`
	Items   []string `json:"items"`
}

func TestDocument_LoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states", "test.json")
	doc := New(path, 1, nil)

	state := &testState{Version: 1, Items: []string{"a"}}
	require.NoError(t, doc.Load(state))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk testState
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 1, onDisk.Version)
	assert.Equal(t, []string{"a"}, onDisk.Items)
}

func TestDocument_LoadRoundtripAndNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	// Stored record carries a field the current schema no longer has.
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"version": 1, "items": ["x", "y"], "obsolete": true}`), 0o644))

	doc := New(path, 1, nil)
	state := &testState{Version: 1}
	require.NoError(t, doc.Load(state))
	assert.Equal(t, []string{"x", "y"}, state.Items)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "obsolete")
}

func TestDocument_LoadCorruptFileSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	doc := New(path, 1, nil)
	state := &testState{Version: 1, Items: []string{"default"}}
	require.NoError(t, doc.Load(state))
	assert.Equal(t, []string{"default"}, state.Items)

	var onDisk testState
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, []string{"default"}, onDisk.Items)
}

func TestDocument_MigrationStepsOneVersionAtATime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "items": ["a"]}`), 0o644))

	var steps []int
	migrate := func(raw map[string]any) (map[string]any, bool) {
		v := int(raw["version"].(float64))
		steps = append(steps, v)
		raw["version"] = float64(v + 1)
		return raw, true
	}

	doc := New(path, 3, migrate)
	state := &testState{Version: 3}
	require.NoError(t, doc.Load(state))

	assert.Equal(t, []int{1, 2}, steps)
	assert.Equal(t, 3, state.Version)
	assert.Equal(t, []string{"a"}, state.Items)
}

func TestDocument_MigrationImpossibleFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 7, "items": ["old"]}`), 0o644))

	migrate := func(raw map[string]any) (map[string]any, bool) { return nil, false }

	doc := New(path, 1, migrate)
	state := &testState{Version: 1, Items: []string{"fresh"}}
	require.NoError(t, doc.Load(state))
	assert.Equal(t, []string{"fresh"}, state.Items)
}

func TestDocument_NoMigrationProfileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 2, "items": ["old"]}`), 0o644))

	doc := New(path, 1, nil)
	state := &testState{Version: 1}
	require.NoError(t, doc.Load(state))
	assert.Empty(t, state.Items)
}
