// Package main is the entrypoint for atsctl, the hiretrack command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiranshivaraju/hiretrack/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
