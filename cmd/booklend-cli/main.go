package main

import (
	"context"
	"os"

	"github.com/yndnr/booklend-go/internal/cli/command"
	"github.com/yndnr/booklend-go/internal/infra/shutdown"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		command.PrintError(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}
