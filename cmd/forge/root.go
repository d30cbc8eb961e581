package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose   bool
	jobs      int
	keepGoing bool
	file      string
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "forge",
		Short:         "forge builds a target namespace from declarative buildfiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().IntVarP(&flags.jobs, "jobs", "j", runtime.NumCPU(), "maximum number of concurrent build jobs (default: number of CPUs)")
	cmd.PersistentFlags().BoolVarP(&flags.keepGoing, "keep-going", "k", false, "keep building independent targets after a failure")
	cmd.PersistentFlags().StringVarP(&flags.file, "file", "f", "", "root buildfile (defaults to forge.yaml, discovered by ascending from the working directory)")

	cmd.AddCommand(newBuildCmd(flags, app))
	cmd.AddCommand(newGraphCmd(flags, app))
	cmd.AddCommand(newCleanCmd(flags, app))

	return cmd
}
