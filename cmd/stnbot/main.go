package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stnbot/cmd/stnbot/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	code := commands.ExecuteContext(ctx)
	cancel()
	os.Exit(code)
}
