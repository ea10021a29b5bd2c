package cmd

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gatemini/internal/socketcoord"
)

const (
	stopPollInterval = 100 * time.Millisecond
	stopPollBudget   = 5 * time.Second
)

// stopCmd sends the daemon its termination signal and waits for it to exit
// (spec.md §6 "stop: sends termination signal to the PID from the PID
// file; polls for exit at 100 ms with a 5 s total budget").
var stopCmd = &cobra.Command{
	Use:          "stop",
	Short:        "Stop the running gatemini daemon",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath, err := socketcoord.PIDFilePath()
	if err != nil {
		return err
	}

	pid, err := socketcoord.ReadPIDFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "no daemon running")
			return nil
		}
		return err
	}

	alive, err := socketcoord.IsDaemonAlive(pidPath)
	if err != nil {
		return err
	}
	if !alive {
		fmt.Fprintln(cmd.OutOrStdout(), "no daemon running")
		return nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon (pid %d): %w", pid, err)
	}

	deadline := time.Now().Add(stopPollBudget)
	for time.Now().Before(deadline) {
		if ok, _ := socketcoord.IsDaemonAlive(pidPath); !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
			return nil
		}
		time.Sleep(stopPollInterval)
	}

	return fmt.Errorf("daemon (pid %d) did not exit within %s", pid, stopPollBudget)
}
