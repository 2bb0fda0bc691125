package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"traddy-backend-go/internal/core"
)

func packsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "Manage the lead pack catalog",
	}
	cmd.AddCommand(packsImportCmd())
	return cmd
}

func packsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Import packs from a semicolon CSV (name;description;intention;lead_count;price)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			packs, err := core.ParsePacks(f)
			if err != nil {
				return err
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if dryRun {
				for _, p := range packs {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-12s %5d leads %8.2f\n", p.Name, p.Intention, p.LeadCount, p.Price)
				}
				return nil
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			for _, p := range packs {
				id, err := e.store.Packs.Create(e.ctx, p)
				if err != nil {
					return fmt.Errorf("create pack %q: %w", p.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", id, p.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d packs imported\n", len(packs))
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "Parse and print without writing")
	return cmd
}
