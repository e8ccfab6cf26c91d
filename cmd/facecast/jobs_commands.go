package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"facecast/internal/api"
)

func newJobsCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage workflow jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newJobsListCommand(cmdCtx))
	cmd.AddCommand(newJobsShowCommand(cmdCtx))
	cmd.AddCommand(newJobsResultCommand(cmdCtx))
	cmd.AddCommand(newJobsCancelCommand(cmdCtx))
	cmd.AddCommand(newJobsClearCommand(cmdCtx))
	return cmd
}

func newJobsListCommand(cmdCtx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workflow jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := cmdCtx.apiClient().ListJobs(cmd.Context(), statuses)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.JobListResponse{Jobs: views})
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(views))
			for _, view := range views {
				rows = append(rows, []string{
					shortJobID(view.JobID),
					view.Status,
					fmt.Sprintf("%d%%", view.Progress),
					view.ActorID,
					formatTimestamp(view.CreatedAt),
					view.Error,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Status", "Progress", "Actor", "Created", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newJobsShowCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := cmdCtx.apiClient().GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, view)
			}
			printJob(cmd, view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newJobsResultCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Fetch the final result of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := cmdCtx.apiClient().GetResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s (%s)\n", result.JobID, result.Status)
			fmt.Fprintf(out, "Actor:    %s\n", result.ActorID)
			fmt.Fprintf(out, "Video:    %s\n", result.VideoURL)
			fmt.Fprintf(out, "Audio:    %s\n", result.AudioURL)
			if result.ThumbnailURL != "" {
				fmt.Fprintf(out, "Thumb:    %s\n", result.ThumbnailURL)
			}
			if result.ProcessingTime > 0 {
				fmt.Fprintf(out, "Took:     %.1fs\n", result.ProcessingTime)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newJobsCancelCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel an in-flight job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := cmdCtx.apiClient().CancelJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s canceled (status: %s)\n", shortJobID(view.JobID), view.Status)
			return nil
		},
	}
	return cmd
}

func newJobsClearCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := cmdCtx.apiClient().ClearTerminal(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}
	return cmd
}

func printJob(cmd *cobra.Command, view api.JobView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", view.JobID)
	fmt.Fprintf(out, "Status:   %s (%d%%)\n", view.Status, view.Progress)
	if view.CurrentStep != "" {
		fmt.Fprintf(out, "Step:     %s\n", view.CurrentStep)
	}
	fmt.Fprintf(out, "Actor:    %s\n", view.ActorID)
	fmt.Fprintf(out, "Created:  %s\n", formatTimestamp(view.CreatedAt))
	if view.CompletedAt != "" {
		fmt.Fprintf(out, "Finished: %s\n", formatTimestamp(view.CompletedAt))
	}
	if view.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", view.Error)
	}
	for _, step := range view.Steps {
		detail := step.Status
		if step.Error != "" {
			detail += ": " + step.Error
		}
		fmt.Fprintf(out, "  - %s [%s]\n", step.Step, detail)
	}
	if view.Result != nil {
		fmt.Fprintf(out, "Video:    %s\n", view.Result.VideoURL)
		fmt.Fprintf(out, "Audio:    %s\n", view.Result.AudioURL)
	}
}

// waitForTerminal polls the daemon until the job completes or fails.
func waitForTerminal(cmd *cobra.Command, client *apiClient, jobID string) (api.JobView, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cmd.Context().Done():
			return api.JobView{}, context.Cause(cmd.Context())
		case <-ticker.C:
		}
		view, err := client.GetJob(cmd.Context(), jobID)
		if err != nil {
			return api.JobView{}, err
		}
		if view.Status == "completed" || view.Status == "error" {
			return view, nil
		}
	}
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTimestamp(value string) string {
	t := api.ParseTime(value)
	if t.IsZero() {
		return strings.TrimSpace(value)
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
