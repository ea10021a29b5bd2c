package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gatemini/internal/socketcoord"
)

// statusCmd prints the daemon's PID and whether it is alive (spec.md §6
// "status: prints PID and alive/dead").
var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Print the gatemini daemon's PID and whether it is alive",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	pidPath, err := socketcoord.PIDFilePath()
	if err != nil {
		return err
	}

	pid, err := socketcoord.ReadPIDFile(pidPath)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "dead (no pid file)")
		return nil
	}

	alive, err := socketcoord.IsDaemonAlive(pidPath)
	if err != nil {
		return err
	}
	if alive {
		fmt.Fprintf(cmd.OutOrStdout(), "pid %d: alive\n", pid)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "pid %d: dead\n", pid)
	}
	return nil
}
