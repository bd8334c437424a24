package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/api"
)

func newDeadLetterCommand(ctx *commandContext) *cobra.Command {
	deadLetterCmd := &cobra.Command{
		Use:   "deadletter",
		Short: "Inspect and requeue dead-lettered dispatch messages",
	}

	deadLetterCmd.AddCommand(newDeadLetterListCommand(ctx))
	deadLetterCmd.AddCommand(newDeadLetterRequeueCommand(ctx))

	return deadLetterCmd
}

func newDeadLetterListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dead-lettered messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			var letters api.DeadLetterListResponse
			if err := ctx.apiGet("/api/deadletter", &letters); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(letters.Messages) == 0 {
				fmt.Fprintln(out, "Dead-letter queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(letters.Messages))
			for _, message := range letters.Messages {
				rows = append(rows, []string{
					strconv.FormatInt(message.ID, 10),
					message.EntryID,
					strconv.Itoa(message.Attempts),
					orDash(truncate(message.LastError, 60)),
					message.UpdatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Entry", "Attempts", "Last Error", "Updated"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newDeadLetterRequeueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <message-id>",
		Short: "Return a dead letter to the queue with a fresh attempt budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message id %q", args[0])
			}
			var result api.RequeueResponse
			if err := ctx.apiPost(fmt.Sprintf("/api/deadletter/%d/requeue", id), "", nil, &result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d message(s)\n", result.Requeued)
			return nil
		},
	}
}
