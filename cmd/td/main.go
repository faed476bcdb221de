package main

import (
	"errors"
	"fmt"
	"os"

	app "github.com/valter-silva-au/taskday/internal"
	"github.com/valter-silva-au/taskday/internal/cli"
	"github.com/valter-silva-au/taskday/internal/core"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	a, err := app.NewApp(basePath)
	if err != nil {
		if errors.Is(err, core.ErrAlreadyRunning) {
			fmt.Fprintln(os.Stderr, "td is already running.")
			return 1
		}
		fmt.Fprintf(os.Stderr, "Error initializing td: %v\n", err)
		return 1
	}
	defer a.Close()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
