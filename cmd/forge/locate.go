package main

import (
	"path/filepath"

	"forge/internal/engine"
	"forge/internal/fsys"
)

// locateRoot resolves the root buildfile path: an explicit --file flag is
// used as-is, otherwise the working directory is ascended looking for
// engine.RootMarker the same way fsys.FindRoot backs target resolution.
func locateRoot(fs fsys.FileSystem, explicit string) (rootDir, rootFile string, err error) {
	if explicit != "" {
		abs, err := fs.Abs(explicit)
		if err != nil {
			return "", "", err
		}
		return filepath.Dir(abs), abs, nil
	}

	wd, err := fs.Initial()
	if err != nil {
		return "", "", err
	}
	dir, err := fs.FindRoot(wd, engine.RootMarker)
	if err != nil {
		return "", "", err
	}
	return dir, filepath.Join(dir, engine.RootMarker), nil
}
