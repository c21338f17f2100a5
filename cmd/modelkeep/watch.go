package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinoosan/modelkeep/internal/client"
	"github.com/tinoosan/modelkeep/internal/data"
)

func watchCmd() *cobra.Command {
	var start bool
	cmd := &cobra.Command{
		Use:   "watch <model-id>",
		Short: "Follow a download on a running server",
		Long: "Stream progress events for a model from the server at\n" +
			"MODELKEEP_SERVER_URL until the download completes, fails or is cancelled.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			c, err := client.NewClientFromEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// subscribe first so the first events of a fresh job are not missed
			events, err := c.Events(ctx, id)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", c.BaseURL(), err)
			}
			if start {
				job, err := c.StartDownload(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "started job %s\n", job.JobID)
			}

			pr := &progressLine{w: cmd.OutOrStdout()}
			for e := range events {
				pr.report(e)
			}
			switch pr.last.Status {
			case data.StatusCompleted:
				return nil
			case data.StatusCancelled:
				return errCancelled
			case data.StatusFailed:
				return fmt.Errorf("download of %s failed", id)
			default:
				return fmt.Errorf("stream for %s ended before the download finished", id)
			}
		},
	}
	cmd.Flags().BoolVar(&start, "start", false, "start the download before watching")
	return cmd
}
