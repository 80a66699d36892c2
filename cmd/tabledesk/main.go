// Command tabledesk manages an allow-listed SQLite database from the
// command line or an interactive menu.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/tabledesk/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewRootCommand())
	stop()
	os.Exit(code)
}
