package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// configPath is the -c flag shared by every subcommand that loads
// config.yaml (spec.md §6).
var configPath string

// directMode runs a single in-process session with no daemon or socket.
var directMode bool

// rootCmd is gatemini's default command: the IPC proxy. Run with no
// subcommand, it reads MCP on stdin and writes on stdout, either bridging
// to a shared daemon it spawns on demand, or with --direct, running a
// single in-process session instead.
var rootCmd = &cobra.Command{
	Use:   "gatemini",
	Short: "Multiplex many MCP backend servers behind one stdio connection",
	Long: `gatemini aggregates many Model Context Protocol backend servers behind one
shared daemon and exposes a small, fixed set of meta-tools to AI agent
clients.

Run with no subcommand to act as the proxy an MCP client execs: it finds or
spawns the shared daemon and becomes a byte pipe between its own stdio and
the daemon's socket. Use 'gatemini serve' to run the daemon itself in the
foreground.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runProxy,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the CLI entry point called from main.main.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gatemini version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to config.yaml")
	rootCmd.Flags().BoolVar(&directMode, "direct", false, "run a single in-process session with no daemon or socket")
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/gatemini/config.yaml"
	}
	return "config.yaml"
}
