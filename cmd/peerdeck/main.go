package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/peerdeck/cmd/peerdeck/cli"
)

var (
	version = "0.1.0-dev"
	commit  = "main"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cli.NewRootCommand(cli.VersionInfo{Version: version, Commit: commit})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "peerdeck: %v\n", err)
		return 1
	}
	return 0
}
