package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/models"
)

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect and repair uploaded lead files",
	}
	cmd.AddCommand(filesSetStatusCmd())
	return cmd
}

func filesSetStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-status [fileId] [processing|completed|error]",
		Short: "Override the processing status of a lead file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.UpdateLeadFileStatusRequest{Status: models.LeadFileStatus(args[1])}
			req.Detail, _ = cmd.Flags().GetString("detail")
			if cmd.Flags().Changed("lead-count") {
				n, _ := cmd.Flags().GetInt("lead-count")
				req.LeadCount = &n
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			// No dispatcher: this service instance only updates statuses.
			uploads := core.NewUploadService(e.store.LeadFiles, nil, core.NewActivityService(e.store.Activities), e.logger)
			file, err := uploads.UpdateStatus(e.ctx, args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s status=%s leads=%d\n", file.ID, file.FileName, file.Status, file.LeadCount)
			return nil
		},
	}
	cmd.Flags().String("detail", "", "Status detail shown to the seller")
	cmd.Flags().Int("lead-count", 0, "Replace the lead count")
	return cmd
}
