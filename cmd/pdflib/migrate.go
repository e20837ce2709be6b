package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/pdflib/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy a library kept next to the executable into the data directory",
		Long: `Older versions stored books.json and covers/ next to the executable. migrate
copies them into the data directory without overwriting anything there. With
--cleanup the old copies are deleted afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, _ := cmd.Flags().GetString("from")
			yes, _ := cmd.Flags().GetBool("yes")
			cleanup, _ := cmd.Flags().GetBool("cleanup")
			out := cmd.OutOrStdout()
			in := cmd.InOrStdin()

			if from == "" {
				dir, err := migrate.LegacyDir()
				if err != nil {
					return err
				}
				from = dir
			}
			to := a.opts.Config.DataDir
			if migrate.SameDir(from, to) {
				return fmt.Errorf("%w: --from %s is the data directory", migrate.ErrSameDirectory, from)
			}

			if !migrate.Detect(from) {
				fmt.Fprintf(out, "No library found in %s\n", from)
				return nil
			}
			if !yes && !confirm(in, out, fmt.Sprintf("Copy library from %s to %s?", from, to)) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}

			items, err := migrate.Copy(from, to)
			if len(items) > 0 {
				fmt.Fprintf(out, "Copied: %s\n", strings.Join(items, ", "))
			} else {
				fmt.Fprintln(out, "Nothing new to copy")
			}
			if err != nil {
				return err
			}
			a.opts.Logger.Info("library migrated", "from", from, "to", to, "items", items)

			if !cleanup {
				return nil
			}
			if !yes && !confirm(in, out, fmt.Sprintf("Delete the old copies in %s?", from)) {
				return nil
			}
			if err := migrate.Cleanup(from); err != nil {
				return fmt.Errorf("failed to delete old copies: %w", err)
			}
			fmt.Fprintf(out, "Deleted old copies in %s\n", from)
			return nil
		},
	}
	cmd.Flags().String("from", "", "Directory holding the old library (default: executable directory)")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().Bool("cleanup", false, "Delete the old copies after copying")
	return cmd
}
