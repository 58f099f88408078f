package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kevin07696/etaca-service/internal/domain"
	"github.com/spf13/cobra"
)

func eventsCmd(timeout *time.Duration) *cobra.Command {
	var (
		limit   int32
		showRaw bool
	)

	cmd := &cobra.Command{
		Use:   "events EXTERNAL_REF",
		Short: "List recorded gateway notifications for a donation, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			events, err := env.events.ListByExternalRef(ctx, nil, args[0], limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no notifications recorded for %s\n", args[0])
				return nil
			}
			return printEvents(cmd.OutOrStdout(), events, showRaw)
		},
	}

	cmd.Flags().Int32VarP(&limit, "limit", "n", 20, "maximum rows")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "print the canonical payload of each notification")

	return cmd
}

func printEvents(out io.Writer, events []*domain.WebhookEvent, showRaw bool) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECEIVED\tSTATUS\tPROCESSED\tPAYLOAD HASH")
	for _, e := range events {
		status := e.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", e.ReceivedAt.Format(time.RFC3339), status, e.Processed, e.PayloadHash)
		if showRaw && e.RawPayload != "" {
			fmt.Fprintf(w, "\t%s\t\t\n", e.RawPayload)
		}
	}
	return w.Flush()
}
