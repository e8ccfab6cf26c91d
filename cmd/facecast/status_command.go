package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"facecast/internal/api"
	"facecast/internal/preflight"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, store, and vendor health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := cmdCtx.apiClient().Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}
			renderStatus(cmd, cmdCtx, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, cmdCtx *commandContext, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	lines := make([]string, 0, 16)

	lines = append(lines, renderSectionHeader("Daemon", colorize))
	daemonKind := statusError
	daemonMsg := "not running"
	if status.Running {
		daemonKind = statusOK
		daemonMsg = fmt.Sprintf("pid %d", status.PID)
	}
	lines = append(lines, renderStatusLine("Daemon", daemonKind, daemonMsg, colorize))
	lines = append(lines, renderStatusLine("Store", statusInfo, status.StoreBackend, colorize))
	lines = append(lines, renderStatusLine("Workflow", boolKind(status.Workflow.Running), runningLabel(status.Workflow.Running), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Jobs", colorize))
	for _, key := range []string{"pending", "processing", "completed", "error"} {
		kind := statusInfo
		if key == "error" && status.Workflow.JobStats[key] > 0 {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(titleCase(key), kind, fmt.Sprintf("%d", status.Workflow.JobStats[key]), colorize))
	}

	if len(status.Workflow.StageHealth) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Stages", colorize))
		for _, health := range status.Workflow.StageHealth {
			kind := statusOK
			message := "ready"
			if !health.Ready {
				kind = statusError
				message = health.Detail
			}
			lines = append(lines, renderStatusLine(health.Name, kind, message, colorize))
		}
	}

	if cfg, err := cmdCtx.ensureConfig(); err == nil {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Preflight", colorize))
		for _, result := range preflight.RunAll(cmd.Context(), cfg) {
			kind := statusOK
			if !result.Passed {
				kind = statusWarn
			}
			lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
		}
	}

	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
