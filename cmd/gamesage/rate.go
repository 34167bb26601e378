package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <turn-id> <1-5> [notes...]",
		Short: "Rate a logged turn",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid turn id %q", args[0])
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}

			app, err := createApp(cmd.Context(), opts, needs{store: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.RateTurn(cmd.Context(), id, rating, strings.Join(args[2:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rated turn %d: %d/5\n", id, rating)
			return nil
		},
	}
}
