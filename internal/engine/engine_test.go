package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"forge/internal/osproc"
)

const sampleBuildfile = `
version: "1"
prototypes:
  - id: cc
    kind: command
  - id: all
    kind: phony
targets:
  - id: out.bin
    prototype: cc
    bind_type: generated_file
    filenames: ["%s"]
    cleanable: true
    command:
      path: /usr/bin/cc
      args: ["-o", "out.bin"]
  - id: all
    prototype: all
    depends: ["out.bin"]
`

func writeBuildfile(t *testing.T, dir string) string {
	t.Helper()
	binPath := filepath.Join(dir, "out.bin")
	content := []byte(fmt.Sprintf(sampleBuildfile, binPath))
	path := filepath.Join(dir, "forge.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestEngineBuildRunsOutdatedTargets(t *testing.T) {
	dir := t.TempDir()
	rootFile := writeBuildfile(t, dir)

	runner := osproc.NewFake()
	var built []string
	reportCalls := 0

	e := New(Options{
		Jobs:   2,
		Runner: runner,
		Report: func(target, status string, err error) {
			reportCalls++
			if status == "built" {
				built = append(built, target)
			}
		},
	})

	_, err := e.LoadRoot(rootFile)
	require.NoError(t, err)

	goal := e.FindTarget("all")
	require.NotNil(t, goal)

	require.NoError(t, e.Build(context.Background(), goal))
	require.Contains(t, built, "/out.bin")
	require.Contains(t, built, "/all")
	require.Greater(t, reportCalls, 0)
	require.Len(t, runner.Calls, 1)
}

func TestEngineBuildMissingRequiredSourceFails(t *testing.T) {
	dir := t.TempDir()
	doc := `
version: "1"
targets:
  - id: src.c
    bind_type: source_file
    filenames: ["` + filepath.Join(dir, "src.c") + `"]
    required_to_exist: true
`
	rootFile := filepath.Join(dir, "forge.yaml")
	require.NoError(t, os.WriteFile(rootFile, []byte(doc), 0o644))

	e := New(Options{Jobs: 1, Runner: osproc.NewFake()})
	_, err := e.LoadRoot(rootFile)
	require.NoError(t, err)

	err = e.Build(context.Background(), nil)
	require.Error(t, err)
}

func TestEngineSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rootFile := writeBuildfile(t, dir)

	e := New(Options{Jobs: 1, Runner: osproc.NewFake()})
	_, err := e.LoadRoot(rootFile)
	require.NoError(t, err)

	snapshotPath := filepath.Join(dir, "snap.bin")
	require.NoError(t, e.SaveSnapshot(snapshotPath))

	e2 := New(Options{Jobs: 1, Runner: osproc.NewFake()})
	require.NoError(t, e2.LoadSnapshot(snapshotPath))
	require.NotNil(t, e2.FindTarget("out.bin"))
}

func TestEngineCleanRemovesCleanableFiles(t *testing.T) {
	dir := t.TempDir()
	rootFile := writeBuildfile(t, dir)
	binPath := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(binPath, []byte("stale"), 0o644))

	e := New(Options{Jobs: 1, Runner: osproc.NewFake()})
	_, err := e.LoadRoot(rootFile)
	require.NoError(t, err)

	require.NoError(t, e.Clean(nil))
	_, statErr := os.Stat(binPath)
	require.True(t, os.IsNotExist(statErr))
}
