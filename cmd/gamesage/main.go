// Gamesage answers video game questions from the terminal, over HTTP or
// as an MCP tool server, keeping plot answers spoiler-free unless asked.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	debug     bool
	dbPath    string
	termsPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "gamesage",
		Short: "Spoiler-aware video game assistant",
		Long: `gamesage answers questions about video games using RAWG, HowLongToBeat,
Wikipedia and a language model. Plot answers stay spoiler-free unless the
question asks for spoilers.

Running gamesage without a subcommand starts the interactive chat.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug logs to debug.log")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Turn log database (overrides GAMESAGE_DB)")
	rootCmd.PersistentFlags().StringVar(&opts.termsPath, "terms", "", "YAML keyword file (overrides GAMESAGE_TERMS)")

	rootCmd.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newReviewCmd(opts),
		newRateCmd(opts),
		newComposeCmd(opts),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
