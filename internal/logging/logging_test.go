package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smartdiff.log")

	l, closeFn, err := New("debug", path)
	require.NoError(t, err)
	sl := Component(l, "session")
	sl.Debug().Uint64("generation", 3).Msg("operation started")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "operation started", entry["message"])
	assert.EqualValues(t, 3, entry["generation"])
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartdiff.log")

	l, closeFn, err := New("warn", path)
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	l.Info().Msg("hidden")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNewBadLevel(t *testing.T) {
	_, closeFn, err := New("loud", "")
	assert.Error(t, err)
	assert.NotPanics(t, closeFn)
}
