package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFileFallsBackToEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")

	v, err := Load(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 9191, v.GetInt("server.port"))
}

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	body := []byte("jwt:\n  secret: from-file\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "realtime.yaml"), body, 0o600))

	v, err := Load(dir, "realtime")
	require.NoError(t, err)
	assert.Equal(t, "from-file", v.GetString("jwt.secret"))
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("jwt: [unterminated"), 0o600))

	_, err := Load(dir, "broken")
	require.Error(t, err)
}
