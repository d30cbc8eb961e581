// Command forge builds a target namespace described by a tree of
// declarative buildfiles.
package main

import (
	"fmt"
	"os"

	"forge/internal/forgelog"
)

func main() {
	log, err := forgelog.New(forgelog.Options{Level: "info", Component: "cli"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := &AppContext{Log: log}
	rootCmd := newRootCmd(app)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
