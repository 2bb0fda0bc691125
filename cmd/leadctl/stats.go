package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"traddy-backend-go/internal/core"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [userId]",
		Short: "Print the dashboard stats of a seller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			dashboard := core.NewDashboardService(e.store.LeadFiles, e.store.Transactions, core.NewActivityService(e.store.Activities))
			stats, err := dashboard.Stats(e.ctx, args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAT\tVALUE\tCHANGE\tTREND")
			for _, s := range stats.Stats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Value, s.Change, s.Trend)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(stats.RecentActivity) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nRecent activity:")
				for _, a := range stats.RecentActivity {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s  %-24s %s\n", a.Timestamp.Format("2006-01-02 15:04"), a.Action, a.TargetID)
				}
			}
			return nil
		},
	}
}
