// Command intake runs the document intake pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/intake-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/intake-cli/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBuilder(build)

	if err := cli.ExecuteContext(ctx); err != nil {
		logger.Debug("command failed: %v", err)
		stop()
		os.Exit(1)
	}
}
