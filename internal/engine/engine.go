// Package engine is forge's top-level façade: the API a script binding (or,
// in this module, the declarative buildfile loader) calls to build the
// target namespace, and that the CLI calls to run a build. It wires
// graph.Graph, scheduler.Scheduler, buildfile.Loader, persist, fsys, and
// forgelog together: LoadRoot parses and loads the buildfile tree, Build
// binds the graph and runs the postorder scheduler pass.
package engine

import (
	"context"
	"path/filepath"

	"forge/internal/buildfile"
	"forge/internal/ferrors"
	"forge/internal/forgelog"
	"forge/internal/fsys"
	"forge/internal/graph"
	"forge/internal/osproc"
	"forge/internal/persist"
	"forge/internal/scheduler"
)

// RootMarker is the filename ascended for to find a forge project root.
const RootMarker = "forge.yaml"

// Options configures an Engine.
type Options struct {
	Jobs      int
	KeepGoing bool
	Log       *forgelog.Logger
	FS        fsys.FileSystem
	Runner    osproc.Runner
	Report    scheduler.ReportFunc
}

// Engine owns one Graph and the Loader/Scheduler pair that operate on it.
// It is the seam every entrypoint (CLI, tests) goes through.
type Engine struct {
	g      *graph.Graph
	loader *buildfile.Loader
	sched  *scheduler.Scheduler
	fs     fsys.FileSystem
	log    *forgelog.Logger
}

// New constructs an Engine with a fresh, empty graph.
func New(opts Options) *Engine {
	fs := opts.FS
	if fs == nil {
		fs = fsys.New()
	}
	runner := opts.Runner
	if runner == nil {
		runner = osproc.New()
	}
	log := opts.Log
	if log == nil {
		log = forgelog.Noop()
	}

	g := graph.New(fs, log)
	loader := buildfile.NewLoader(g, log)

	e := &Engine{g: g, loader: loader, fs: fs, log: log}
	e.sched = scheduler.New(g, runner, scheduler.Options{
		Jobs:          opts.Jobs,
		KeepGoing:     opts.KeepGoing,
		Build:         e.build,
		LoadBuildfile: e.loadNested,
		Log:           log,
		Report:        opts.Report,
	})
	return e
}

// Graph exposes the underlying graph, e.g. for `forge graph` diagnostics.
func (e *Engine) Graph() *graph.Graph { return e.g }

// LoadRoot loads the root buildfile at path, resolving its target ids against
// the namespace root, which is made its own working directory.
func (e *Engine) LoadRoot(path string) (int, error) {
	wd := e.g.Root()
	wd.SetWorkingDirectory(wd)
	ctx := graph.NewContext(wd)
	errCount, err := e.loader.LoadFile(ctx, wd, path)
	if err != nil {
		return errCount, err
	}
	return errCount, nil
}

func (e *Engine) loadNested(ctx *graph.Context, wd *graph.Target, path string) (int, error) {
	return e.loader.LoadFile(ctx, wd, path)
}

// build is the BuildFunc every scheduled target runs through: it delegates
// to the target's prototype Build hook, if any.
func (e *Engine) build(ctx *graph.Context, t *graph.Target) error {
	proto := t.Prototype()
	if proto == nil || proto.Build == nil {
		return nil
	}
	return proto.Build(ctx, t)
}

// Bind runs the postorder timestamp/outdated propagation pass, returning
// the count of required-to-exist sources missing from disk.
func (e *Engine) Bind() (int, error) {
	return e.g.Bind(nil)
}

// Build runs Bind, then the postorder parallel scheduler over every outdated
// target reachable from goal (or the whole graph if goal is nil).
func (e *Engine) Build(ctx context.Context, goal *graph.Target) error {
	start := goal
	if start == nil {
		start = e.g.Root()
	}

	missing, err := e.Bind()
	if err != nil {
		return err
	}
	if missing > 0 {
		e.log.Error("missing required source files", "goal", start.Path(), "count", missing)
		return ferrors.MissingRequiredSource(start.Path(), "one or more required sources")
	}

	e.log.Info("building", "goal", start.Path())
	err = e.sched.Run(ctx, start)
	if err != nil {
		e.log.Error("build failed", "goal", start.Path(), "error", err)
	}
	return err
}

// Clean removes the backing files of every cleanable target reachable from
// goal (or the whole graph).
func (e *Engine) Clean(goal *graph.Target) error {
	start := goal
	if start == nil {
		start = e.g.Root()
	}
	var walk func(t *graph.Target) error
	walk = func(t *graph.Target) error {
		for _, c := range t.Children() {
			if err := walk(c); err != nil {
				return err
			}
		}
		if t.Cleanable() {
			for _, fn := range t.Filenames() {
				if err := e.fs.Remove(fn); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(start)
}

// FindTarget resolves id relative to the graph root.
func (e *Engine) FindTarget(id string) *graph.Target {
	return e.g.FindTarget(id, e.g.Root())
}

// SnapshotPath returns the default snapshot location alongside the root
// buildfile's directory.
func SnapshotPath(rootDir string) string {
	return filepath.Join(rootDir, ".forge.cache")
}

// SaveSnapshot persists the graph to path.
func (e *Engine) SaveSnapshot(path string) error {
	return persist.Save(e.g, path)
}

// LoadSnapshot replaces the graph's contents with the snapshot at path. The
// caller must re-run Bind before scheduling, since timestamps and outdated
// flags are recomputed fresh rather than restored.
func (e *Engine) LoadSnapshot(path string) error {
	e.g.Clear()
	return persist.Load(e.g, path)
}
