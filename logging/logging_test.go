package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mevoq.log")
	log, err := New(path, false)
	require.NoError(t, err)

	log.Infow("contact submitted", "lead_type", "strategy_call")
	log.Debugw("hidden at info level")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"msg":"contact submitted"`)
	assert.Contains(t, out, `"lead_type":"strategy_call"`)
	assert.Contains(t, out, `"level":"info"`)
	assert.False(t, strings.Contains(out, "hidden at info level"))
}

func TestNewDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	log, err := New(path, true)
	require.NoError(t, err)
	log.Debugw("visible")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"visible"`)
}
