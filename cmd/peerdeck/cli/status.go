package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatusCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection and seeding state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			s := env.Session
			count := "unavailable"
			if err := s.Files.Refresh(cmd.Context()); err == nil {
				count = fmt.Sprintf("%d", len(s.Files.Snapshot().Records))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Backend:\t%s\n", env.Config.BackendURL)
			fmt.Fprintf(w, "Connection:\t%s\n", s.Conn.State())
			fmt.Fprintf(w, "Seeding:\t%s\n", s.Seed.State())
			fmt.Fprintf(w, "Files:\t%s\n", count)
			return w.Flush()
		},
	}
}
