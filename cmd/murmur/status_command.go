package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			if err := ctx.apiGet("/api/status", &status); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Murmur Daemon", colorize)
			lines = append(lines, renderDaemonLines(status, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Entries", colorize)...)
			lines = append(lines, renderCountLines(status.Pipeline.EntryCounts, entryStatusOrder, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dispatch Queue", colorize)...)
			lines = append(lines, renderCountLines(status.Pipeline.QueueCounts, queueStatusOrder, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

var entryStatusOrder = []string{"pending", "processing", "processed", "failed"}

var queueStatusOrder = []string{"ready", "leased", "dead"}

func renderDaemonLines(status api.DaemonStatus, colorize bool) []string {
	runningKind := statusError
	if status.Running {
		runningKind = statusOK
	}
	lines := []string{
		renderStatusLine("Running", runningKind, fmt.Sprintf("pid %d", status.PID), colorize),
		renderStatusLine("Journal DB", statusInfo, status.JournalDBPath, colorize),
		renderStatusLine("Dispatch DB", statusInfo, status.DispatchDBPath, colorize),
		renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize),
	}
	if status.Pipeline.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, status.Pipeline.LastError, colorize))
	}
	return lines
}

func renderCountLines(counts map[string]int, order []string, colorize bool) []string {
	lines := make([]string, 0, len(order))
	for _, name := range order {
		kind := statusInfo
		count := counts[name]
		switch name {
		case "failed", "dead":
			if count > 0 {
				kind = statusWarn
			}
		case "processed":
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(name, kind, fmt.Sprintf("%d", count), colorize))
	}
	return lines
}
