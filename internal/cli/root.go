package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// configPath is the --config flag value, shared by all subcommands.
var configPath string

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with values
// injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the goalgraph CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands, configures
// logging based on the --verbose flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "goalgraph",
		Short:        "GoalGraph tracks goals as a dependency graph",
		Long:         `GoalGraph is a CLI tool for managing goals, milestones, and tasks as a dependency graph. It computes a layered layout, partitions large graphs into bounded sub-views, and tracks daily progress from node completions.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("goalgraph %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/goalgraph/config.toml)")

	root.AddCommand(newAddCmd())
	root.AddCommand(newDoneCmd())
	root.AddCommand(newUndoCmd())
	root.AddCommand(newRmCmd())
	root.AddCommand(newLinkCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newProgressCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWatchCmd())

	return root.ExecuteContext(ctx)
}
