package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/tebeka/atexit"

	"tctasks/internal/tasks"
)

// Main entry point for the tctasks runner.
func main() {
	options := tasks.Tasks{}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	atexit.Register(cancel)

	if err := newRootCommand(&options).ExecuteContext(ctx); err != nil {
		log.Error("Task failed", "error", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
