package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gamesage/internal/answer/compose"
	"gamesage/internal/draft"
)

func newComposeCmd(opts *rootOptions) *cobra.Command {
	var (
		query      string
		showRecord bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Apply the answer policy to a drafted record read from stdin",
		Long: `Read a drafted answer record (JSON) from stdin, enforce the spoiler and
topic policy against --query and print the composed answer. No network
access is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read draft: %w", err)
			}

			app, err := createApp(cmd.Context(), opts, needs{})
			if err != nil {
				return err
			}
			defer app.Close()

			rec, err := draft.Parse(string(raw))
			if err != nil {
				return err
			}
			rec = app.enforcer.Enforce(rec, query)

			if showRecord {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), compose.Compose(rec))
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "The question the draft answers")
	cmd.Flags().BoolVar(&showRecord, "record", false, "Print the enforced record as JSON instead of the answer")
	return cmd
}
