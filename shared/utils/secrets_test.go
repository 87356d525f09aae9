package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSecret(t *testing.T) {
	dir := t.TempDir()
	old := secretsDir
	secretsDir = dir
	t.Cleanup(func() { secretsDir = old })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("  from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("  "), 0o600))
	t.Setenv("STORY_TEST_SECRET", "from-env")

	value, err := ReadSecret("jwt_secret", "STORY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)

	value, err = ReadSecret("missing", "STORY_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = ReadSecret("empty", "STORY_TEST_SECRET")
	assert.Error(t, err)

	_, err = ReadSecret("missing", "")
	assert.Error(t, err)
}
