package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open a session with the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.Session.Conn.RequestConnect(cmd.Context()); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection: %s\n", env.Session.Conn.State())
			return nil
		},
	}
}

func newDisconnectCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the backend session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.Session.Conn.RequestDisconnect(cmd.Context()); err != nil {
				return fmt.Errorf("disconnect: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connection: %s\n", env.Session.Conn.State())
			return nil
		},
	}
}

func newSeedCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:       "seed on|off",
		Short:     "Turn seeding on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			seed := env.Session.Seed
			if args[0] == "on" {
				err = seed.RequestStart(cmd.Context())
			} else {
				err = seed.RequestStop(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("seed %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeding: %s\n", seed.State())
			return nil
		},
	}
}

func newDownloadCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "download <key|name>",
		Short: "Ask the backend to download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			fc := env.Session.Files
			if err := fc.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("fetch file list: %w", err)
			}
			rec, err := resolveFile(fc, args[0])
			if err != nil {
				return err
			}
			if err := fc.Download(cmd.Context(), rec.Key); err != nil {
				return fmt.Errorf("download %q: %w", rec.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Download requested: %s\n", rec.Name)
			return nil
		},
	}
}

func newDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key|name>",
		Short: "Delete a file from the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			fc := env.Session.Files
			if err := fc.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("fetch file list: %w", err)
			}
			rec, err := resolveFile(fc, args[0])
			if err != nil {
				return err
			}
			if err := fc.Delete(cmd.Context(), rec.Key); err != nil {
				return fmt.Errorf("delete %q: %w", rec.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", rec.Name)
			return nil
		},
	}
}
