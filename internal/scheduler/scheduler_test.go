package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"forge/internal/fsys"
	"forge/internal/graph"
	"forge/internal/osproc"
)

func newTestGraph() *graph.Graph {
	return graph.New(fsys.NewFake("/work"), nil)
}

// markOutdated sets t up as a generated file with no backing file on disk,
// so a subsequent g.Bind(nil) finds it missing and marks it outdated.
func markOutdated(t *graph.Target, path string) {
	t.SetBindType(graph.GeneratedFile)
	t.AddFilename(path)
}

func TestComputeAssignsPostorderHeights(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	b, _ := g.AddTarget("b", nil, nil)
	c, _ := g.AddTarget("c", nil, nil)
	b.AddDependency(a)
	c.AddDependency(b)

	Compute(c)
	require.Equal(t, 1, a.Height())
	require.Equal(t, 2, b.Height())
	require.Equal(t, 3, c.Height())
}

func TestRunBuildsInPostorder(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	b, _ := g.AddTarget("b", nil, nil)
	b.AddDependency(a)
	markOutdated(a, "/work/a")
	markOutdated(b, "/work/b")
	_, err := g.Bind(nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string
	build := func(ctx *graph.Context, target *graph.Target) error {
		mu.Lock()
		order = append(order, target.Path())
		mu.Unlock()
		return nil
	}

	s := New(g, osproc.NewFake(), Options{Jobs: 2, Build: build})
	err = s.Run(context.Background(), b)
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b"}, order)
	require.True(t, a.Built())
	require.True(t, b.Built())
}

func TestRunSkipsNonOutdatedTargets(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	a.SetBindType(graph.SourceFile) // never outdated
	_, err := g.Bind(nil)
	require.NoError(t, err)

	var called bool
	build := func(ctx *graph.Context, target *graph.Target) error {
		called = true
		return nil
	}

	s := New(g, osproc.NewFake(), Options{Jobs: 1, Build: build})
	err = s.Run(context.Background(), a)
	require.NoError(t, err)
	require.False(t, called)
}

func TestRunFailFastStopsOnFirstError(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	b, _ := g.AddTarget("b", nil, nil)
	b.AddDependency(a)
	markOutdated(a, "/work/a")
	markOutdated(b, "/work/b")
	_, err := g.Bind(nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	build := func(ctx *graph.Context, target *graph.Target) error {
		if target == a {
			return boom
		}
		return nil
	}

	s := New(g, osproc.NewFake(), Options{Jobs: 1, Build: build})
	err = s.Run(context.Background(), b)
	require.ErrorIs(t, err, boom)
	require.False(t, b.Built(), "dependent must not run after its dependency failed")
}

func TestRunKeepGoingSkipsDependentsOfFailedTarget(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	b, _ := g.AddTarget("b", nil, nil)
	b.AddDependency(a)
	markOutdated(a, "/work/a")
	markOutdated(b, "/work/b")
	_, err := g.Bind(nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	var built []string
	var mu sync.Mutex
	build := func(ctx *graph.Context, target *graph.Target) error {
		if target == a {
			return boom
		}
		mu.Lock()
		built = append(built, target.Path())
		mu.Unlock()
		return nil
	}

	s := New(g, osproc.NewFake(), Options{Jobs: 2, KeepGoing: true, Build: build})
	err = s.Run(context.Background(), b)
	require.Error(t, err)
	require.NotContains(t, built, "/b", "b depends on the failed target a")
	require.False(t, b.Built())
}

func TestReportFuncReceivesLifecycleStatuses(t *testing.T) {
	g := newTestGraph()
	a, _ := g.AddTarget("a", nil, nil)
	markOutdated(a, "/work/a")
	_, err := g.Bind(nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var statuses []string
	report := func(target string, status string, err error) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	s := New(g, osproc.NewFake(), Options{
		Jobs:   1,
		Build:  func(ctx *graph.Context, target *graph.Target) error { return nil },
		Report: report,
	})
	require.NoError(t, s.Run(context.Background(), a))
	require.Equal(t, []string{"started", "built"}, statuses)
}

func TestExecuteDelegatesToPool(t *testing.T) {
	g := newTestGraph()
	runner := osproc.NewFake()
	s := New(g, runner, Options{Jobs: 1})

	gctx := graph.NewContext(g.Root())
	gctx.Execution = s
	code, err := gctx.Execute("/bin/echo", []string{"hi"}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Len(t, runner.Calls, 1)
	require.Equal(t, "/bin/echo", runner.Calls[0].Path)
}

func TestBuildfileWithoutLoaderConfigured(t *testing.T) {
	g := newTestGraph()
	s := New(g, osproc.NewFake(), Options{Jobs: 1})

	gctx := graph.NewContext(g.Root())
	gctx.Execution = s
	_, err := gctx.Buildfile("nested.yaml")
	require.Error(t, err)
}

func TestWaitBlocksUntilOutstandingExecuteCompletes(t *testing.T) {
	g := newTestGraph()
	runner := osproc.NewFake()
	s := New(g, runner, Options{Jobs: 1})

	gctx := graph.NewContext(g.Root())
	gctx.Execution = s

	release := make(chan struct{})
	runner.Before = func(osproc.Command) { <-release }

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = gctx.Execute("/bin/sleep", []string{"0"}, nil, nil)
	}()
	<-started

	waitDone := make(chan struct{})
	go func() {
		_ = gctx.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		t.Fatal("Wait returned before the outstanding Execute call completed")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-waitDone
}
