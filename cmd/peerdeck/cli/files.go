package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/view"
)

func newFilesCommand(flags *globalFlags) *cobra.Command {
	var (
		sortBy string
		desc   bool
	)

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List files available on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			order := env.Prefs.Sort()
			if cmd.Flags().Changed("sort") {
				field, err := view.ParseField(sortBy)
				if err != nil {
					return err
				}
				order = view.Sort{Field: field, Ascending: true}
			}
			if cmd.Flags().Changed("desc") {
				order.Ascending = !desc
			}

			if err := env.Session.Files.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("fetch file list: %w", err)
			}
			rows := env.Session.Rows(order)
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files available")
				return nil
			}
			return writeFileTable(cmd, rows)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by name, size or modified (default from preferences)")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	return cmd
}

func writeFileTable(cmd *cobra.Command, rows []view.Row) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tTYPE\tMODIFIED\tKEY")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.1f MB\t%s\t%s\t%s\n", r.Name, r.SizeMB, r.Type, modifiedLabel(r.Record), r.Key)
	}
	return w.Flush()
}

func modifiedLabel(r files.Record) string {
	if !r.ModifiedKnown() {
		return "-"
	}
	return humanize.Time(r.LastModified)
}

// resolveFile finds a record by exact key, then by case-insensitive hash or
// name.
func resolveFile(fc *files.Controller, arg string) (files.Record, error) {
	arg = strings.TrimSpace(arg)
	if rec, ok := fc.Get(arg); ok {
		return rec, nil
	}

	var matches []files.Record
	for _, rec := range fc.Snapshot().Records {
		if strings.EqualFold(rec.Name, arg) || (rec.Hash != "" && strings.EqualFold(rec.Hash, arg)) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return files.Record{}, fmt.Errorf("no file matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return files.Record{}, fmt.Errorf("%q matches %d files, use the key from `peerdeck files`", arg, len(matches))
	}
}
