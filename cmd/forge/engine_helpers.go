package main

import (
	"fmt"
	"os"

	"forge/internal/engine"
	"forge/internal/forgelog"
	"forge/internal/fsys"
)

// newReadOnlyEngine builds an Engine for diagnostic subcommands (graph,
// clean) that never schedule a build and so need no Report callback.
func newReadOnlyEngine(log *forgelog.Logger, fs fsys.FileSystem) *engine.Engine {
	return engine.New(engine.Options{
		Jobs: 1,
		Log:  log,
		FS:   fs,
	})
}

// loadGraph restores a prior snapshot at rootDir's cache path, if one
// exists, before loading rootFile onto the same graph. Recovering the
// snapshot first means a previously designated cache target survives, so a
// buildfile edit since the last build is visible as a stale cache target
// once Bind runs. A missing snapshot is not an error: the graph just starts
// empty, as if this were the first build. A snapshot that exists but cannot
// be read or decoded is returned as an error.
func loadGraph(eng *engine.Engine, rootDir, rootFile string) (int, error) {
	if _, statErr := os.Stat(engine.SnapshotPath(rootDir)); statErr == nil {
		if err := eng.LoadSnapshot(engine.SnapshotPath(rootDir)); err != nil {
			return 0, fmt.Errorf("load snapshot: %w", err)
		}
	}
	return eng.LoadRoot(rootFile)
}
