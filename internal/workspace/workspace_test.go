package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
)

func TestEphemeralLifecycle(t *testing.T) {
	m := NewEphemeral(t.TempDir())
	require.NoError(t, m.Create())

	path := m.Path()
	assert.True(t, strings.Contains(filepath.Base(path), "debforge-build-"), "timestamped dir name")
	_, err := os.Stat(path)
	require.NoError(t, err)

	sub, err := m.Subdir("source")
	require.NoError(t, err)
	_, err = os.Stat(sub)
	require.NoError(t, err)

	require.NoError(t, m.Cleanup())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "ephemeral workspace removed")
	assert.Empty(t, m.Path())
}

func TestPersistentSurvivesCleanup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "work")
	m := NewPersistent(dir)
	require.NoError(t, m.Create())

	require.NoError(t, m.Cleanup())
	_, err := os.Stat(dir)
	require.NoError(t, err, "persistent workspace kept")
	assert.Equal(t, dir, m.Path())
}

func TestSubdirRequiresCreate(t *testing.T) {
	m := NewEphemeral(t.TempDir())
	_, err := m.Subdir("x")
	require.Error(t, err)

	var fe *forgeerr.ForgeError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, forgeerr.CategoryFileSystem, fe.Category)
}

func TestCreateFailureIsWorkspaceError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	m := NewPersistent(filepath.Join(blocker, "work"))
	err := m.Create()
	require.Error(t, err)

	var fe *forgeerr.ForgeError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, forgeerr.CategoryFileSystem, fe.Category)
	assert.Equal(t, "create", fe.Context["operation"])
}
