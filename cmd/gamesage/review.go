package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gamesage/internal/logging"
)

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show recently logged turns, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			app, err := createApp(cmd.Context(), opts, needs{store: true})
			if err != nil {
				return err
			}
			defer app.Close()

			turns, err := app.store.RecentTurns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No turns logged yet.")
				return nil
			}
			for _, t := range turns {
				printTurn(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of turns to show")
	return cmd
}

func printTurn(w io.Writer, t logging.Turn) {
	fmt.Fprintf(w, "#%d  %s  session %s\n", t.ID, t.Timestamp.Format("2006-01-02 15:04:05"), t.SessionID)
	fmt.Fprintf(w, "Q: %s\n", t.Query)

	var tags []string
	if t.Metadata.Game != "" {
		tags = append(tags, "game="+t.Metadata.Game)
	}
	if topic := t.Record.Topic.String(); topic != "" {
		tags = append(tags, "topic="+topic)
	}
	if t.Metadata.Fallback {
		tags = append(tags, "fallback")
	}
	if t.Metadata.ResponseTime > 0 {
		tags = append(tags, "took="+t.Metadata.ResponseTime.String())
	}
	if len(tags) > 0 {
		fmt.Fprintf(w, "   %s\n", strings.Join(tags, " "))
	}

	fmt.Fprintf(w, "A: %s\n", strings.ReplaceAll(t.Answer, "\n", "\n   "))
	if t.Rating != nil {
		fmt.Fprintf(w, "Rating: %d/5", *t.Rating)
		if t.Notes != nil {
			fmt.Fprintf(w, " (%s)", *t.Notes)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
