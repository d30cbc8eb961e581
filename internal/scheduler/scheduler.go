// Package scheduler performs the postorder parallel build pass over a
// graph.Graph: it computes each target's height (1 + max height of its
// dependencies), then dispatches targets level by level, running every
// target within a level concurrently up to the configured job limit. It
// implements graph.Execution so that a target's build function can suspend
// on an external command, a nested buildfile load, or an explicit wait
// without blocking a worker thread — only the goroutine that called it
// blocks. Concurrency is bounded with golang.org/x/sync/errgroup's
// SetLimit.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"forge/internal/executor"
	"forge/internal/ferrors"
	"forge/internal/forgelog"
	"forge/internal/graph"
	"forge/internal/osproc"
)

// BuildFunc is invoked once per target that needs building, on its own
// goroutine, with a Context it may use to suspend via Execute/Buildfile/Wait.
type BuildFunc func(ctx *graph.Context, t *graph.Target) error

// BuildfileLoader loads the buildfile at path into the graph relative to
// the supplied working-directory target, returning the count of script
// errors it produced. ctx carries the caller's CurrentBuildfile so nested
// loads can self-register against it. Implemented by the engine package.
type BuildfileLoader func(ctx *graph.Context, wd *graph.Target, path string) (errCount int, err error)

// ReportFunc is notified as targets move through the build: status is one of
// "started", "built", "failed", or "skipped" (not run because a dependency
// failed). Targets that are not outdated are passed over without a report.
// Used by the tui
// package to drive a live dashboard without the scheduler importing it.
type ReportFunc func(target string, status string, err error)

// Options configures a Scheduler.
type Options struct {
	Jobs          int // maximum_parallel_jobs; <=0 defaults to 1
	KeepGoing     bool
	Build         BuildFunc
	LoadBuildfile BuildfileLoader
	Log           *forgelog.Logger
	Report        ReportFunc
}

// Scheduler drives a postorder build pass and also serves as the
// graph.Execution a running target's Context suspends through.
type Scheduler struct {
	g         *graph.Graph
	pool      *executor.Pool
	build     BuildFunc
	loadFile  BuildfileLoader
	keepGoing bool
	log       *forgelog.Logger
	report    ReportFunc

	mu      sync.Mutex
	jobWG   sync.WaitGroup
	failErr error
}

// New constructs a Scheduler bound to g, running external commands through
// runner with up to opts.Jobs concurrent slots.
func New(g *graph.Graph, runner osproc.Runner, opts Options) *Scheduler {
	return &Scheduler{
		g:         g,
		pool:      executor.New(runner, opts.Jobs, opts.Log),
		build:     opts.Build,
		loadFile:  opts.LoadBuildfile,
		keepGoing: opts.KeepGoing,
		log:       opts.Log,
		report:    opts.Report,
	}
}

func (s *Scheduler) notify(target, status string, err error) {
	if s.report != nil {
		s.report(target, status, err)
	}
}

// Compute assigns Height() to every target reachable from start via a
// postorder walk over AnyDependencies, so that Run can bucket targets into
// dispatch levels.
func Compute(start *graph.Target) []int {
	seen := make(map[*graph.Target]bool)
	var heights []int
	var walk func(t *graph.Target) int
	walk = func(t *graph.Target) int {
		if seen[t] {
			return t.Height()
		}
		seen[t] = true
		h := 1
		for _, dep := range t.AnyDependencies() {
			dh := walk(dep)
			if dh+1 > h {
				h = dh + 1
			}
		}
		t.SetHeight(h)
		heights = append(heights, h)
		return h
	}
	walk(start)
	return heights
}

// levels buckets every target reachable from start by height, ascending.
// When start is the graph root (no parent), every target in its namespace
// subtree is a starting point, since the root carries no dependency edges.
func levels(start *graph.Target) [][]*graph.Target {
	starts := []*graph.Target{start}
	if start.Parent() == nil {
		var flatten func(t *graph.Target)
		flatten = func(t *graph.Target) {
			for _, c := range t.Children() {
				starts = append(starts, c)
				flatten(c)
			}
		}
		flatten(start)
	}
	for _, s := range starts {
		Compute(s)
	}
	byHeight := make(map[int][]*graph.Target)
	max := 0
	seen := make(map[*graph.Target]bool)
	var collect func(t *graph.Target)
	collect = func(t *graph.Target) {
		if seen[t] {
			return
		}
		seen[t] = true
		byHeight[t.Height()] = append(byHeight[t.Height()], t)
		if t.Height() > max {
			max = t.Height()
		}
		for _, dep := range t.AnyDependencies() {
			collect(dep)
		}
	}
	for _, s := range starts {
		collect(s)
	}

	out := make([][]*graph.Target, max)
	for h := 1; h <= max; h++ {
		out[h-1] = byHeight[h]
	}
	return out
}

// Run dispatches start's dependency tree level by level (lowest height —
// leaves — first), running every target in a level concurrently bounded by
// the scheduler's job limit, and finally start itself. A target whose
// outdated flag is false after Graph.Bind is skipped. Returns the first
// build error encountered; with KeepGoing set, it continues past failed
// targets (skipping only their dependents, except that a failed ordering-only
// dependency is logged as a warning and does not skip its dependent) and
// returns a combined error.
func (s *Scheduler) Run(ctx context.Context, start *graph.Target) error {
	ls := levels(start)

	failed := make(map[*graph.Target]bool)
	var failedMu sync.Mutex

	for _, level := range ls {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(s.pool.Capacity())

		for _, t := range level {
			t := t
			if !t.Outdated() {
				continue
			}

			failedMu.Lock()
			blocked := false
			deps := append(t.Dependencies(graph.Explicit), t.Dependencies(graph.Implicit)...)
			if !s.keepGoing {
				deps = append(deps, t.Dependencies(graph.Ordering)...)
			}
			for _, dep := range deps {
				if failed[dep] {
					blocked = true
					break
				}
			}
			if s.keepGoing && !blocked && s.log != nil {
				for _, dep := range t.Dependencies(graph.Ordering) {
					if failed[dep] {
						s.log.Warn("ordering dependency failed", "target", t.Path(), "dependency", dep.Path())
					}
				}
			}
			failedMu.Unlock()
			if blocked {
				failedMu.Lock()
				failed[t] = true
				failedMu.Unlock()
				s.notify(t.Path(), "skipped", nil)
				continue
			}

			eg.Go(func() error {
				err := s.runOne(gctx, t)
				if err != nil {
					failedMu.Lock()
					failed[t] = true
					failedMu.Unlock()
					if !s.keepGoing {
						return err
					}
					s.recordFailure(err)
				}
				return nil
			})
		}

		if err := eg.Wait(); err != nil {
			return err
		}
	}

	if len(failed) > 0 && s.keepGoing {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.failErr
	}
	return nil
}

func (s *Scheduler) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = errors.Join(s.failErr, err)
}

func (s *Scheduler) runOne(ctx context.Context, t *graph.Target) error {
	if s.build == nil {
		return nil
	}
	gctx := graph.NewContext(t.WorkingDirectory())
	gctx.Execution = s
	gctx.SetCurrentBuildfile(nil)

	if s.log != nil {
		s.log.Debug("building", "target", t.Path())
	}
	s.notify(t.Path(), "started", nil)

	if err := s.build(gctx, t); err != nil {
		if s.log != nil {
			s.log.Error("build failed", "target", t.Path(), "error", err)
		}
		s.notify(t.Path(), "failed", err)
		return err
	}
	t.SetBuilt(true)
	s.notify(t.Path(), "built", nil)
	return nil
}

// Execute implements graph.Execution: it runs an external command through
// the bounded worker pool, blocking only the calling goroutine. The call is
// tracked in jobWG for the duration of the pool.Run, so a concurrent Wait
// call suspends until it (and any other outstanding Execute/Buildfile call)
// finishes.
func (s *Scheduler) Execute(gctx *graph.Context, path string, args, env []string, stdin []byte) (int, error) {
	s.jobWG.Add(1)
	defer s.jobWG.Done()

	cmd := osproc.Command{Path: path, Args: args, Env: env}
	target := "?"
	if gctx.CurrentBuildfile() != nil {
		target = gctx.CurrentBuildfile().Path()
	}
	return s.pool.Run(context.Background(), target, cmd)
}

// Buildfile implements graph.Execution: it loads a nested buildfile via the
// scheduler's BuildfileLoader, which re-enters the engine/graph API exactly
// as a direct script call would. Tracked in jobWG like Execute.
func (s *Scheduler) Buildfile(gctx *graph.Context, path string) (int, error) {
	if s.loadFile == nil {
		return 0, ferrors.InvalidArgument("no buildfile loader configured")
	}
	s.jobWG.Add(1)
	defer s.jobWG.Done()

	errCount, err := s.loadFile(gctx, gctx.WorkingDirectory(), path)
	return errCount, err
}

// Wait implements graph.Execution: it blocks until every Execute/Buildfile
// call currently outstanding across the scheduler completes.
func (s *Scheduler) Wait(gctx *graph.Context) error {
	s.jobWG.Wait()
	return nil
}
