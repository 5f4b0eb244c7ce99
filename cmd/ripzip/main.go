package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucrnz/ripzip/internal/cleanup"
	"github.com/lucrnz/ripzip/internal/cli"
	"github.com/lucrnz/ripzip/internal/lockwait"
)

// exitStillLocked is EX_TEMPFAIL from sysexits.h: the file may be free later.
const exitStillLocked = 75

func main() {
	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create cleanup tracker for temporary files
	tracker := cleanup.NewTracker()

	// Run CLI with context
	err := cli.ExecuteContext(ctx, tracker)
	tracker.Cleanup()
	if err == nil {
		return
	}

	// Check if error is due to context cancellation (interrupt)
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(130) // Standard exit code for SIGINT
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, lockwait.ErrStillLocked) {
		os.Exit(exitStillLocked)
	}
	os.Exit(1)
}
