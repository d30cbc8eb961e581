package fsys

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalFindRootAscendsToMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "forge.yaml"), []byte("version: \"1\"\n"), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	fs := New()
	found, err := fs.FindRoot(nested, "forge.yaml")
	require.NoError(t, err)
	require.Equal(t, root, found)
}

func TestLocalFindRootErrorsWhenMarkerMissing(t *testing.T) {
	dir := t.TempDir()
	fs := New()
	_, err := fs.FindRoot(dir, "forge.yaml")
	require.Error(t, err)
}

func TestLocalModTimeZeroForMissingFile(t *testing.T) {
	fs := New()
	require.Zero(t, fs.ModTime(filepath.Join(t.TempDir(), "nope")))
}

func TestFakeModTimeAndRemove(t *testing.T) {
	fake := NewFake("/work")
	fake.MTimes["/work/a"] = time.Unix(42, 0)
	require.Equal(t, int64(42), fake.ModTime("/work/a"))

	require.NoError(t, fake.Remove("/work/a"))
	require.Zero(t, fake.ModTime("/work/a"))
}

func TestFakeAbsJoinsRelativeToRoot(t *testing.T) {
	fake := NewFake("/work")
	abs, err := fake.Abs("sub/file.txt")
	require.NoError(t, err)
	require.Equal(t, "/work/sub/file.txt", abs)
}
