// Package fsys is the path & filesystem façade: the thin, explicitly
// out-of-scope "OsInterface"-style capability the core graph engine is
// written against. It canonicalises paths, locates the root/initial/home/
// executable directories, and answers mtime queries — nothing more.
package fsys

import (
	"os"
	"path/filepath"
	"time"

	"forge/internal/ferrors"
)

// FileSystem is the capability seam the graph and scheduler packages take a
// dependency on instead of calling os/path directly, so tests can substitute
// a fake clock/tree without touching disk.
type FileSystem interface {
	// Abs canonicalises path to an absolute, cleaned form.
	Abs(path string) (string, error)
	// ModTime returns the modification time of path as a Unix epoch, or 0 if
	// the path does not exist.
	ModTime(path string) int64
	// FindRoot ascends from start looking for a file named marker, returning
	// the directory that contains it.
	FindRoot(start, marker string) (string, error)
	// Initial returns the directory the process was started in.
	Initial() (string, error)
	// Home returns the current user's home directory.
	Home() (string, error)
	// Executable returns the path to the running binary.
	Executable() (string, error)
	// Remove deletes the file at path, ignoring a not-exist error.
	Remove(path string) error
}

// Local implements FileSystem against the real operating system.
type Local struct{}

// New returns the default local filesystem façade.
func New() *Local { return &Local{} }

func (Local) Abs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func (Local) ModTime(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

func (Local) FindRoot(start, marker string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, marker)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ferrors.RootFileNotFound(marker, start)
		}
		dir = parent
	}
}

func (Local) Initial() (string, error) {
	return os.Getwd()
}

func (Local) Home() (string, error) {
	return os.UserHomeDir()
}

func (Local) Executable() (string, error) {
	return os.Executable()
}

func (Local) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var _ FileSystem = (*Local)(nil)

// Fake is an in-memory FileSystem used by tests: it fixes mtimes for a set
// of paths without touching disk, matching the pattern the pack's plugin
// contract tests use for fixture filesystems.
type Fake struct {
	MTimes map[string]time.Time
	Root   string
}

func NewFake(root string) *Fake {
	return &Fake{MTimes: make(map[string]time.Time), Root: root}
}

func (f *Fake) Abs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Clean(filepath.Join(f.Root, path)), nil
}

func (f *Fake) ModTime(path string) int64 {
	t, ok := f.MTimes[path]
	if !ok {
		return 0
	}
	return t.Unix()
}

func (f *Fake) FindRoot(start, marker string) (string, error) { return f.Root, nil }
func (f *Fake) Initial() (string, error)                      { return f.Root, nil }
func (f *Fake) Home() (string, error)                         { return f.Root, nil }
func (f *Fake) Executable() (string, error)                   { return filepath.Join(f.Root, "forge"), nil }
func (f *Fake) Remove(path string) error {
	delete(f.MTimes, path)
	return nil
}

var _ FileSystem = (*Fake)(nil)
