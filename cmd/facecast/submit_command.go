package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"facecast/internal/api"
)

func newSubmitCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		actorID     string
		videoURL    string
		projectID   string
		voiceID     string
		voicePreset string
		lang        string
		modelID     string
		jsonOut     bool
		wait        bool
	)

	cmd := &cobra.Command{
		Use:   "submit <text>",
		Short: "Submit a talking-avatar video generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.SubmitRequest{
				Text:          args[0],
				ActorID:       actorID,
				ActorVideoURL: videoURL,
				ProjectID:     projectID,
				VoiceID:       voiceID,
				VoicePreset:   voicePreset,
				Language:      lang,
				ModelID:       modelID,
			}
			if err := req.Validate(); err != nil {
				return err
			}

			client := cmdCtx.apiClient()
			job, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			if wait {
				job, err = waitForTerminal(cmd, client, job.JobID)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, job)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s submitted (status: %s)\n", job.JobID, job.Status)
			if wait && job.Result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Video: %s\n", job.Result.VideoURL)
			}
			if strings.TrimSpace(job.Error) != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", job.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "Actor identifier (required)")
	cmd.Flags().StringVar(&videoURL, "video", "", "Actor reference video URL (required)")
	cmd.Flags().StringVar(&projectID, "project", "", "Project identifier")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice identifier")
	cmd.Flags().StringVar(&voicePreset, "preset", "", "Voice preset name")
	cmd.Flags().StringVar(&lang, "language", "", "Language of the text")
	cmd.Flags().StringVar(&modelID, "model", "", "Speech model identifier")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("video")

	return cmd
}
