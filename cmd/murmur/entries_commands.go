package main

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/api"
)

func newEntriesCommand(ctx *commandContext) *cobra.Command {
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "Inspect and manage journal entries",
	}

	entriesCmd.AddCommand(newEntriesListCommand(ctx))
	entriesCmd.AddCommand(newEntriesShowCommand(ctx))
	entriesCmd.AddCommand(newEntriesAddCommand(ctx))
	entriesCmd.AddCommand(newEntriesReprocessCommand(ctx))

	return entriesCmd
}

func newEntriesListCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var statuses []string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if trimmed := strings.TrimSpace(owner); trimmed != "" {
				query.Set("owner", trimmed)
				if limit > 0 {
					query.Set("limit", strconv.Itoa(limit))
				}
				if offset > 0 {
					query.Set("offset", strconv.Itoa(offset))
				}
			}
			for _, status := range statuses {
				query.Add("status", status)
			}

			path := "/api/entries"
			if encoded := query.Encode(); encoded != "" {
				path += "?" + encoded
			}

			var listed api.EntryListResponse
			if err := ctx.apiGet(path, &listed); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(listed.Entries) == 0 {
				fmt.Fprintln(out, "No entries found")
				return nil
			}
			rows := make([][]string, 0, len(listed.Entries))
			for _, entry := range listed.Entries {
				rows = append(rows, []string{
					entry.ID,
					entry.OwnerID,
					entry.Status,
					orDash(entry.Emotion),
					orDash(truncate(entry.Summary, 48)),
					entry.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Owner", "Status", "Emotion", "Summary", "Created"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter by owner (newest first)")
	cmd.Flags().StringArrayVar(&statuses, "status", nil, "Filter by entry status (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to return (owner listing)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Entries to skip (owner listing)")
	return cmd
}

func newEntriesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show a single entry in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fetched api.EntryResponse
			if err := ctx.apiGet("/api/entries/"+url.PathEscape(args[0]), &fetched); err != nil {
				return err
			}
			printEntry(cmd, fetched.Entry)
			return nil
		},
	}
}

func newEntriesAddCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "add <audio-file>",
		Short: "Submit a recording for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(owner) == "" {
				return fmt.Errorf("--owner is required")
			}
			audio, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}

			var body bytes.Buffer
			writer := multipart.NewWriter(&body)
			if err := writer.WriteField("owner_id", owner); err != nil {
				return fmt.Errorf("build upload: %w", err)
			}
			part, err := writer.CreateFormFile("audio", filepath.Base(args[0]))
			if err != nil {
				return fmt.Errorf("build upload: %w", err)
			}
			if _, err := part.Write(audio); err != nil {
				return fmt.Errorf("build upload: %w", err)
			}
			if err := writer.Close(); err != nil {
				return fmt.Errorf("build upload: %w", err)
			}

			var created api.EntryResponse
			if err := ctx.apiPost("/api/entries", writer.FormDataContentType(), &body, &created); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s queued for processing\n", created.Entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner the entry belongs to")
	return cmd
}

func newEntriesReprocessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <entry-id>",
		Short: "Move a failed entry back to pending and dispatch it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var updated api.EntryResponse
			path := "/api/entries/" + url.PathEscape(args[0]) + "/reprocess"
			if err := ctx.apiPost(path, "", nil, &updated); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry %s re-dispatched (status %s)\n", updated.Entry.ID, updated.Entry.Status)
			return nil
		},
	}
}

func printEntry(cmd *cobra.Command, entry api.Entry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:             %s\n", entry.ID)
	fmt.Fprintf(out, "Owner:          %s\n", entry.OwnerID)
	fmt.Fprintf(out, "Status:         %s\n", entry.Status)
	fmt.Fprintf(out, "Audio ref:      %s\n", entry.AudioRef)
	fmt.Fprintf(out, "Created:        %s\n", entry.CreatedAt)
	fmt.Fprintf(out, "Updated:        %s\n", entry.UpdatedAt)
	if entry.FailureReason != "" {
		fmt.Fprintf(out, "Failure reason: %s\n", entry.FailureReason)
	}
	if entry.Emotion != "" {
		fmt.Fprintf(out, "Emotion:        %s\n", entry.Emotion)
	}
	if entry.Summary != "" {
		fmt.Fprintf(out, "Summary:        %s\n", entry.Summary)
	}
	if entry.Transcript != "" {
		fmt.Fprintf(out, "Transcript:\n%s\n", entry.Transcript)
	}
}
