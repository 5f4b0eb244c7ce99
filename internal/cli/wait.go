package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucrnz/ripzip/internal/lockwait"
	"github.com/lucrnz/ripzip/internal/util"
)

var (
	waitInterval    string
	waitAttempts    int
	waitShowHolders bool
)

var waitCmd = &cobra.Command{
	Use:   "wait <file>",
	Short: "Wait until a file is no longer locked by another process",
	Long: `Wait until a file can be opened for shared reading and is not empty.

The file is probed once per --interval, at most --attempts times. Exits with
status 75 if the file is still locked when the attempts run out.`,
	Args: cobra.ExactArgs(1),
	RunE: runWait,
}

func init() {
	f := waitCmd.Flags()
	f.StringVarP(&waitInterval, "interval", "i", "", "Time between attempts, e.g. \"500ms\", \"2s\" (default from config: 1s)")
	f.IntVarP(&waitAttempts, "attempts", "n", 0, "Maximum number of attempts (default from config: 100)")
	f.BoolVar(&waitShowHolders, "show-holders", false, "List processes holding the file if it stays locked")
}

func runWait(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	interval := cfg.Probe.Interval
	if waitInterval != "" {
		d, err := util.ParseDuration(waitInterval)
		if err != nil {
			return fmt.Errorf("invalid --interval value: %w", err)
		}
		interval = d
	}
	attempts := cfg.Probe.Attempts
	if cmd.Flags().Changed("attempts") {
		if waitAttempts <= 0 {
			return fmt.Errorf("--attempts must be positive, got %d", waitAttempts)
		}
		attempts = waitAttempts
	}

	err := lockwait.WaitUntilAvailable(ctx, path, interval, attempts)
	if err == nil {
		status(cmd, "✅ %s is available", path)
		return nil
	}

	var locked *lockwait.LockedError
	if waitShowHolders && errors.As(err, &locked) {
		holders, herr := lockwait.Holders(ctx, path)
		switch {
		case herr != nil:
			status(cmd, "Could not list processes holding %s: %v", path, herr)
		case len(holders) == 0:
			status(cmd, "No process visible to ripzip has %s open", path)
		default:
			for _, h := range holders {
				status(cmd, "  held by pid %d (%s)", h.PID, h.Name)
			}
		}
	}
	return err
}
