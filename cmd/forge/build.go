package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"forge/internal/engine"
	"forge/internal/forgelog"
	"forge/internal/fsys"
	"forge/internal/graph"
	"forge/internal/scheduler"
	"forge/internal/tui"
)

func newBuildCmd(root *rootFlags, app *AppContext) *cobra.Command {
	var goalID string
	var snapshot bool

	cmd := &cobra.Command{
		Use:   "build [goal]",
		Short: "Build a target and everything it depends on",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				goalID = args[0]
			}
			return runBuild(root, app, goalID, snapshot)
		},
	}
	cmd.Flags().BoolVar(&snapshot, "snapshot", true, "persist the built graph to .forge.cache on success")
	return cmd
}

func runBuild(root *rootFlags, app *AppContext, goalID string, snapshotOnSuccess bool) error {
	log := app.LoggerFor("build")
	if root.verbose {
		var err error
		log, err = forgelog.New(forgelog.Options{Level: "debug", Component: "build"})
		if err != nil {
			return err
		}
	}

	fs := fsys.New()
	rootDir, rootFile, err := locateRoot(fs, root.file)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	var program *tea.Program
	done := make(chan struct{})

	var modelState tui.Model
	var report scheduler.ReportFunc = func(target string, status string, reportErr error) {
		msg := reportStatusToMsg(target, status, reportErr)
		if interactive && program != nil {
			program.Send(msg)
			return
		}
		updated, _ := modelState.Update(msg)
		if m, ok := updated.(tui.Model); ok {
			modelState = m
		}
	}

	eng := engine.New(engine.Options{
		Jobs:      root.jobs,
		KeepGoing: root.keepGoing,
		Log:       log,
		FS:        fs,
		Report:    report,
	})

	if _, err := loadGraph(eng, rootDir, rootFile); err != nil {
		return fmt.Errorf("load %s: %w", rootFile, err)
	}

	var goal *graph.Target
	if goalID != "" {
		goal = eng.FindTarget(goalID)
		if goal == nil {
			return fmt.Errorf("unknown target %q", goalID)
		}
	}

	if _, err := eng.Bind(); err != nil {
		return err
	}
	modelState = tui.NewModel(goalLabel(goalID), outdatedPaths(eng, goal))

	var buildErr error
	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, _ = program.Run()
			close(done)
		}()
	}

	ctx := context.Background()
	buildErr = eng.Build(ctx, goal)

	if interactive {
		program.Send(tui.BuildFinishedMsg{Err: buildErr})
		time.Sleep(150 * time.Millisecond)
		program.Send(tea.QuitMsg{})
		<-done
	} else {
		updated, _ := modelState.Update(tui.BuildFinishedMsg{Err: buildErr})
		if m, ok := updated.(tui.Model); ok {
			modelState = m
		}
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	if buildErr != nil {
		return buildErr
	}

	if snapshotOnSuccess {
		if err := eng.SaveSnapshot(engine.SnapshotPath(rootDir)); err != nil {
			log.Warn("failed to persist snapshot", "error", err)
		}
	}
	return nil
}

func reportStatusToMsg(target, status string, err error) tea.Msg {
	switch status {
	case "started":
		return tui.TargetStartedMsg{Path: target, Time: time.Now()}
	default:
		return tui.TargetDoneMsg{Path: target, Status: tui.Status(status), Err: err, Time: time.Now()}
	}
}

func goalLabel(goalID string) string {
	if goalID == "" {
		return "/"
	}
	return goalID
}

func outdatedPaths(eng *engine.Engine, goal *graph.Target) []string {
	start := goal
	if start == nil {
		start = eng.Graph().Root()
	}
	var out []string
	var walk func(t *graph.Target)
	walk = func(t *graph.Target) {
		for _, c := range t.Children() {
			walk(c)
		}
		if t.Outdated() {
			out = append(out, t.Path())
		}
	}
	walk(start)
	return out
}
