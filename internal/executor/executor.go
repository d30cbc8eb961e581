// Package executor is the bounded pool through which external commands run
// on behalf of target build functions. It is deliberately the only place blocking
// os/exec calls happen; it never touches graph state. Bounded concurrency is
// implemented with golang.org/x/sync/semaphore, following the same pattern
// the pack uses for batch-parallel package builds (see DESIGN.md).
package executor

import (
	"context"

	"golang.org/x/sync/semaphore"

	"forge/internal/ferrors"
	"forge/internal/forgelog"
	"forge/internal/osproc"
)

// Pool is a fixed-size worker pool: at most `capacity` external commands run
// concurrently, regardless of how many target goroutines call Run.
type Pool struct {
	runner   osproc.Runner
	sem      *semaphore.Weighted
	log      *forgelog.Logger
	capacity int64
}

// New creates a Pool with capacity concurrent slots, defaulting to 1 if
// capacity <= 0.
func New(runner osproc.Runner, capacity int, log *forgelog.Logger) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		runner:   runner,
		sem:      semaphore.NewWeighted(int64(capacity)),
		log:      log,
		capacity: int64(capacity),
	}
}

// Capacity returns the number of commands this pool runs concurrently.
func (p *Pool) Capacity() int { return int(p.capacity) }

// Run acquires a slot, spawns cmd, and blocks the calling goroutine (not a
// worker thread — there is no separate worker thread, only this semaphore)
// until it exits. This is the suspension point a target's build function
// hits via graph.Context.Execute.
func (p *Pool) Run(ctx context.Context, targetPath string, cmd osproc.Command) (int, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return -1, err
	}
	defer p.sem.Release(1)

	if p.log != nil {
		p.log.Debug("executing command", "target", targetPath, "path", cmd.Path, "args", cmd.Args)
	}

	exitCode, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return exitCode, ferrors.CommandFailed(targetPath, exitCode, err)
	}
	if exitCode != 0 {
		return exitCode, ferrors.CommandFailed(targetPath, exitCode, nil)
	}
	return exitCode, nil
}
