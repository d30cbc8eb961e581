package graph

// Context is the per-goroutine mutable state a target's build function (or a
// buildfile load) executes with: the current working-directory stack, the
// buildfile target that is being loaded (if any), and the exit code of the
// most recent external command this goroutine issued. Exactly one Context is
// active per goroutine — it is never shared between concurrently running
// build functions.
type Context struct {
	workingDirectory *Target
	wdStack          []*Target
	currentBuildfile *Target
	lastExitCode     int

	// Execution is the suspension-point surface (Execute/Buildfile/Wait).
	// The scheduler package sets it on the Context of every build function it
	// dispatches; graph itself only owns the fields above, keeping the
	// dependency direction graph <- scheduler one-way.
	Execution Execution
}

// Execution is implemented by the scheduler and is how a build function
// suspends: queuing an external command, loading a nested buildfile, or
// waiting for outstanding jobs, without blocking the worker pool.
type Execution interface {
	Execute(ctx *Context, path string, args, env []string, stdin []byte) (exitCode int, err error)
	Buildfile(ctx *Context, path string) (errCount int, err error)
	Wait(ctx *Context) error
}

// NewContext creates a Context whose initial working directory is wd.
func NewContext(wd *Target) *Context {
	return &Context{workingDirectory: wd}
}

// WorkingDirectory returns the target relative paths are resolved against.
func (c *Context) WorkingDirectory() *Target { return c.workingDirectory }

// PushWorkingDirectory saves the current working directory and switches to
// wd; Pop restores it. Mirrors the script-callable push/pop directory pair
// used while a buildfile temporarily cd's into a subdirectory.
func (c *Context) PushWorkingDirectory(wd *Target) {
	c.wdStack = append(c.wdStack, c.workingDirectory)
	c.workingDirectory = wd
}

// PopWorkingDirectory restores the working directory saved by the matching
// Push call. A Pop with no matching Push is a no-op.
func (c *Context) PopWorkingDirectory() {
	if len(c.wdStack) == 0 {
		return
	}
	last := len(c.wdStack) - 1
	c.workingDirectory = c.wdStack[last]
	c.wdStack = c.wdStack[:last]
}

// CurrentBuildfile returns the target for the buildfile presently loading on
// this goroutine, or nil outside of a buildfile load.
func (c *Context) CurrentBuildfile() *Target { return c.currentBuildfile }

// SetCurrentBuildfile is called by the buildfile loader around each load, and
// by the scheduler (to clear it) when dispatching a build function.
func (c *Context) SetCurrentBuildfile(t *Target) { c.currentBuildfile = t }

// LastExitCode returns the exit code of the most recently completed Execute
// call issued by this goroutine.
func (c *Context) LastExitCode() int { return c.lastExitCode }

func (c *Context) setLastExitCode(code int) { c.lastExitCode = code }

// Execute queues an external command and suspends this goroutine until it
// completes, returning its exit code.
func (c *Context) Execute(path string, args, env []string, stdin []byte) (int, error) {
	code, err := c.Execution.Execute(c, path, args, env, stdin)
	c.setLastExitCode(code)
	return code, err
}

// Buildfile suspends this goroutine until the nested buildfile at path has
// been fully loaded, returning the number of script errors it produced.
func (c *Context) Buildfile(path string) (int, error) {
	return c.Execution.Buildfile(c, path)
}

// Wait suspends this goroutine until every outstanding job it has launched
// has completed.
func (c *Context) Wait() error {
	return c.Execution.Wait(c)
}
