package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"gatemini/internal/app"
)

// serveCmd runs the daemon in the foreground: bind the socket, build the
// registry and backend engine, start every backend, then serve sessions
// until terminated (spec.md §6 "serve: daemon foreground").
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gatemini daemon in the foreground",
	Long: `Starts the gatemini daemon: binds the coordination socket, loads
config.yaml, starts every configured backend, and then serves MCP sessions
over the socket until the process receives SIGINT/SIGTERM or its idle
timeout elapses with no active sessions.

This is what the proxy (gatemini's default, no-subcommand behavior) spawns
automatically the first time it can't find a daemon already listening; it
is rarely invoked directly except to watch daemon logs in a foreground
terminal.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, configPath)
	if err != nil {
		return err
	}
	return a.RunDaemon(ctx)
}
