// Package cli holds the peerdeck cobra commands. Without a subcommand the
// root command runs the TUI; subcommands are one-shot operations against the
// backend.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/peerdeck/internal/app"
	"github.com/five82/peerdeck/internal/logging"
)

// VersionInfo is stamped by the main package.
type VersionInfo struct {
	Version string
	Commit  string
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	poll       time.Duration
	verbose    bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath:   g.configPath,
		PollInterval: g.poll,
		Verbose:      g.verbose,
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "peerdeck",
		Short: "Terminal client for a peer file-sharing backend",
		Long: `peerdeck drives a peer file-sharing backend from the terminal.

Run without arguments to open the interactive file manager. Subcommands
perform a single action and exit.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ~/.config/peerdeck/config.toml)")
	cmd.PersistentFlags().DurationVar(&flags.poll, "poll", 0, "backend poll interval, e.g. 2s (overrides config)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	cmd.Version = fmt.Sprintf("%s (%s)", info.Version, info.Commit)

	cmd.AddCommand(
		newStatusCommand(flags),
		newFilesCommand(flags),
		newConnectCommand(flags),
		newDisconnectCommand(flags),
		newSeedCommand(flags),
		newDownloadCommand(flags),
		newDeleteCommand(flags),
	)
	return cmd
}

// openEnv loads config, connects the session to the backend and runs one
// reconciliation pass so the controllers start from the backend's view.
func openEnv(cmd *cobra.Command, flags *globalFlags) (*app.Env, error) {
	opts := flags.options()
	opts.Mode = logging.ModeCLI
	opts.LogOut = cmd.ErrOrStderr()

	env, err := app.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := env.Session.SyncOnce(cmd.Context()); err != nil {
		env.Close()
		return nil, fmt.Errorf("query backend at %s: %w", env.Config.BackendURL, err)
	}
	return env, nil
}
