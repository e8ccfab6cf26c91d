package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"facecast/internal/services/elevenlabs"
)

// newVoicesCommand lists the voices available to the configured speech key.
// It talks to the vendor directly, so it works without a running daemon.
func newVoicesCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List available speech voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			client := elevenlabs.NewClient(cfg.ElevenLabs.APIKey,
				elevenlabs.WithBaseURL(cfg.ElevenLabs.BaseURL),
				elevenlabs.WithTimeout(time.Duration(cfg.ElevenLabs.RequestTimeout)*time.Second),
			)
			voices, err := client.Voices(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, voices)
			}
			if len(voices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No voices available")
				return nil
			}
			rows := make([][]string, 0, len(voices))
			for _, voice := range voices {
				rows = append(rows, []string{voice.VoiceID, voice.Name, voice.Category})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Category"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
