package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"forge/internal/fsys"
	"forge/internal/graph"
)

func newGraphCmd(root *rootFlags, app *AppContext) *cobra.Command {
	var goalID string

	cmd := &cobra.Command{
		Use:   "graph [goal]",
		Short: "Print the resolved target namespace and its outdated state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				goalID = args[0]
			}
			return runGraph(root, app, goalID)
		},
	}
	return cmd
}

func runGraph(root *rootFlags, app *AppContext, goalID string) error {
	log := app.LoggerFor("graph")
	fs := fsys.New()
	rootDir, rootFile, err := locateRoot(fs, root.file)
	if err != nil {
		return err
	}

	eng := newReadOnlyEngine(log, fs)
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

	start := goal
	if start == nil {
		start = eng.Graph().Root()
	}
	printTarget(start, 0)
	return nil
}

func printTarget(t *graph.Target, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	marker := " "
	if t.Outdated() {
		marker = "*"
	}
	fmt.Printf("%s%s%s [%s]\n", indent, marker, displayPath(t), t.BindType())

	children := append([]*graph.Target(nil), t.Children()...)
	sort.Slice(children, func(i, j int) bool { return children[i].ID() < children[j].ID() })
	for _, c := range children {
		printTarget(c, depth+1)
	}
}

func displayPath(t *graph.Target) string {
	if p := t.Path(); p != "" {
		return p
	}
	return "/"
}
