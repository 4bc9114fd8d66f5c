package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchwave/patchwave/internal/infrastructure/sqlite"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded provisioning runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqlite.Open(cfg.StateDB)
		if err != nil {
			return fmt.Errorf("open state db: %w", err)
		}
		defer db.Close()

		recs, err := (&sqlite.RunRepo{DB: db}).List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, rec := range recs {
			t := rec.Report.Tally()
			fmt.Fprintf(out, "%s  %-9s  %s  +%d =%d -%d !%d\n",
				rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
				rec.Mode, rec.ID,
				t.Created, t.AlreadyPresent, t.Removed, t.Failed)
		}
		return nil
	},
}
