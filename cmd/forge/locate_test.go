package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"forge/internal/engine"
	"forge/internal/fsys"
)

func TestLocateRootUsesExplicitFileWhenGiven(t *testing.T) {
	fake := fsys.NewFake("/work")

	dir, file, err := locateRoot(fake, "sub/forge.yaml")
	require.NoError(t, err)
	require.Equal(t, "/work/sub", dir)
	require.Equal(t, "/work/sub/forge.yaml", file)
}

func TestLocateRootAscendsFromWorkingDirectory(t *testing.T) {
	fake := fsys.NewFake("/work")

	dir, file, err := locateRoot(fake, "")
	require.NoError(t, err)
	require.Equal(t, "/work", dir)
	require.Equal(t, filepath.Join("/work", engine.RootMarker), file)
}
