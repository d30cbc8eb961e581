package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"forge/internal/fsys"
	"forge/internal/graph"
)

func newCleanCmd(root *rootFlags, app *AppContext) *cobra.Command {
	var goalID string

	cmd := &cobra.Command{
		Use:   "clean [goal]",
		Short: "Remove the backing files of every cleanable target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				goalID = args[0]
			}
			return runClean(root, app, goalID)
		},
	}
	return cmd
}

func runClean(root *rootFlags, app *AppContext, goalID string) error {
	log := app.LoggerFor("clean")
	fs := fsys.New()
	_, rootFile, err := locateRoot(fs, root.file)
	if err != nil {
		return err
	}

	eng := newReadOnlyEngine(log, fs)
	if _, err := eng.LoadRoot(rootFile); err != nil {
		return fmt.Errorf("load %s: %w", rootFile, err)
	}

	var goal *graph.Target
	if goalID != "" {
		goal = eng.FindTarget(goalID)
		if goal == nil {
			return fmt.Errorf("unknown target %q", goalID)
		}
	}

	return eng.Clean(goal)
}
