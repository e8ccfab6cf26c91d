package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"facecast/internal/config"
	"facecast/internal/daemon"
	"facecast/internal/jobs"
	"facecast/internal/logging"
	"facecast/internal/preflight"
	"facecast/internal/services/elevenlabs"
	"facecast/internal/services/syncdotso"
	"facecast/internal/workflow"
)

func newDaemonCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the facecast daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			return runDaemon(cmd, cfg)
		},
	}
}

func runDaemon(cmd *cobra.Command, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}

	store, err := jobs.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}

	speech := elevenlabs.NewClient(cfg.ElevenLabs.APIKey,
		elevenlabs.WithBaseURL(cfg.ElevenLabs.BaseURL),
		elevenlabs.WithDefaultVoice(cfg.ElevenLabs.DefaultVoiceID),
		elevenlabs.WithDefaultModel(cfg.ElevenLabs.DefaultModelID),
		elevenlabs.WithTimeout(time.Duration(cfg.ElevenLabs.RequestTimeout)*time.Second),
	)
	lipsync := syncdotso.NewClient(cfg.Lipsync.APIKey,
		syncdotso.WithBaseURL(cfg.Lipsync.BaseURL),
		syncdotso.WithModel(cfg.Lipsync.Model),
		syncdotso.WithPollInterval(time.Duration(cfg.Lipsync.PollInterval)*time.Second),
	)

	orchestrator := workflow.New(cfg, store, speech, lipsync, logger)

	d, err := daemon.New(cfg, store, orchestrator, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("facecast shutting down")
	d.Stop()
	return context.Cause(ctx)
}
