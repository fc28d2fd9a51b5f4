// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package secret

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironment(t *testing.T) {
	t.Setenv("WAYBAR_TRAINS_TEST", "  value\n")
	got, err := FromEnvironment("WAYBAR_TRAINS_TEST")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestFromEnvironment_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))
	t.Setenv("WAYBAR_TRAINS_TEST", "")
	t.Setenv("WAYBAR_TRAINS_TEST_FILE", path)

	got, err := FromEnvironment("WAYBAR_TRAINS_TEST")
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
}

func TestFromEnvironment_Missing(t *testing.T) {
	t.Setenv("WAYBAR_TRAINS_TEST", "")
	_, err := FromEnvironment("WAYBAR_TRAINS_TEST")
	assert.Equal(t, MissingEnvironmentKey("WAYBAR_TRAINS_TEST"), err)
}

func TestFromEnvironmentOr(t *testing.T) {
	t.Setenv("WAYBAR_TRAINS_TEST", "")
	got, err := FromEnvironmentOr("WAYBAR_TRAINS_TEST", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WAYBAR_TRAINS_DOTENV_TEST=hello\n"), 0o600))
	t.Setenv("WAYBAR_TRAINS_DOTENV_TEST", "")
	os.Unsetenv("WAYBAR_TRAINS_DOTENV_TEST")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("WAYBAR_TRAINS_DOTENV_TEST"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
