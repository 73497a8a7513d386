// Command inventory-record serves the entry record manager and offers
// command-line listing and export.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"inventoryrecord/internal/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := cli.New(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "inventory-record: %v\n", err)
		return 1
	}
	return 0
}
