package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"gatemini/internal/app"
	"gatemini/internal/ipc"
)

// runProxy is rootCmd's RunE: the default, no-subcommand behavior (spec.md
// §6 "default (no subcommand): proxy mode"). With --direct it runs a single
// in-process session with no daemon or socket at all; otherwise it bridges
// stdio to the shared daemon, spawning one if none is listening.
func runProxy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if directMode {
		a, err := app.New(ctx, configPath)
		if err != nil {
			return err
		}
		return a.RunDirect(ctx, os.Stdin, os.Stdout)
	}

	return ipc.RunProxy(ctx, os.Stdin, os.Stdout)
}
