package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSandbox_ResolveWithinRoot(t *testing.T) {
	root := t.TempDir()
	sb, err := New(root)
	require.NoError(t, err)

	resolved, err := sb.Resolve("subdir/file.txt")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(resolved))
}

func TestSandbox_ResolveEscapingPathRejected(t *testing.T) {
	root := t.TempDir()
	sb, err := New(root)
	require.NoError(t, err)

	_, err = sb.Resolve("../../etc/passwd")
	require.ErrorIs(t, err, ErrPathEscapesWorkspace)
}

func TestSandbox_ResolveAbsoluteOutsideRootRejected(t *testing.T) {
	root := t.TempDir()
	sb, err := New(root)
	require.NoError(t, err)

	other := t.TempDir()
	_, err = sb.Resolve(filepath.Join(other, "x"))
	require.ErrorIs(t, err, ErrPathEscapesWorkspace)
}

func TestSandbox_ResolveNewFileUnderExistingDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	sb, err := New(root)
	require.NoError(t, err)

	resolved, err := sb.Resolve("nested/new_file.txt")
	require.NoError(t, err)
	require.True(t, isDescendant(sb.Root(), resolved))
}
