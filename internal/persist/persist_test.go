package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"forge/internal/fsys"
	"forge/internal/graph"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(fsys.NewFake("/work"), nil)
	proto := g.AddTargetPrototype("cc")

	a, err := g.AddTarget("a.o", nil, proto)
	require.NoError(t, err)
	a.SetBindType(graph.GeneratedFile)
	a.AddFilename("/work/a.o")
	a.SetCleanable(true)

	b, err := g.AddTarget("b.o", nil, proto)
	require.NoError(t, err)
	b.SetBindType(graph.GeneratedFile)
	b.AddFilename("/work/b.o")
	b.AddDependency(a)
	b.AddOrderingDependency(a)

	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)
	path := filepath.Join(t.TempDir(), "snapshot.bin")

	require.NoError(t, Save(g, path))

	g2 := graph.New(fsys.NewFake("/work"), nil)
	require.NoError(t, Load(g2, path))

	a := g2.FindTarget("a.o", nil)
	require.NotNil(t, a)
	require.Equal(t, graph.GeneratedFile, a.BindType())
	require.Equal(t, []string{"/work/a.o"}, a.Filenames())
	require.True(t, a.Cleanable())

	b := g2.FindTarget("b.o", nil)
	require.NotNil(t, b)
	require.Contains(t, b.Dependencies(graph.Explicit), a)
	require.Contains(t, b.Dependencies(graph.Ordering), a)
}

func TestSaveLoadPreservesRootIdentity(t *testing.T) {
	g := buildSampleGraph(t)
	path := filepath.Join(t.TempDir(), "snapshot.bin")
	require.NoError(t, Save(g, path))

	g2 := graph.New(fsys.NewFake("/work"), nil)
	originalRoot := g2.Root()
	require.NoError(t, Load(g2, path))
	require.Same(t, originalRoot, g2.Root(), "loading must reuse the existing root, not create an anonymous child")
}

func TestSaveLoadRoundTripsCacheTarget(t *testing.T) {
	g := buildSampleGraph(t)
	path := filepath.Join(t.TempDir(), "snapshot.bin")

	require.NoError(t, Save(g, path))
	require.NotNil(t, g.CacheTarget(), "Save must designate a cache target on the saved graph")
	require.Equal(t, []string{path}, g.CacheTarget().Filenames())

	g2 := graph.New(fsys.NewFake("/work"), nil)
	require.NoError(t, Load(g2, path))
	require.NotNil(t, g2.CacheTarget(), "Load must restore the cache target designation")
	require.Equal(t, []string{path}, g2.CacheTarget().Filenames())
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0o644))

	g := graph.New(fsys.NewFake("/work"), nil)
	err := Load(g, path)
	require.Error(t, err)
}
