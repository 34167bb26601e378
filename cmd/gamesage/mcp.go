package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gamesage/internal/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	var enforceOnly bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assistant as MCP tools on stdio",
		Long: `Serve the assistant over the Model Context Protocol on stdin/stdout.

Tools:
  ask_game_question  answer a question end to end
  enforce_answer     apply the spoiler policy to a drafted record

With --enforce-only no language model is needed and only enforce_answer
is offered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := createApp(ctx, opts, needs{assistant: !enforceOnly})
			if err != nil {
				return err
			}
			defer app.Close()

			var asker mcp.Asker
			if app.assistant != nil {
				asker = app.assistant
			}
			app.debug.Println("Starting MCP server on stdio")
			return mcp.NewServer(asker, app.enforcer, version, app.debug).Serve(ctx)
		},
	}
	cmd.PersistentFlags().BoolVar(&enforceOnly, "enforce-only", false, "Offer only the enforce_answer tool")

	cmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "Start the MCP server as a subprocess and list its tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := createApp(ctx, opts, needs{})
			if err != nil {
				return err
			}
			defer app.Close()

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			childArgs := []string{"mcp"}
			if enforceOnly {
				childArgs = append(childArgs, "--enforce-only")
			}
			if opts.termsPath != "" {
				childArgs = append(childArgs, "--terms", opts.termsPath)
			}

			client := mcp.NewClient(version, app.debug)
			if err := client.ConnectCommand(ctx, exe, childArgs...); err != nil {
				return err
			}
			defer client.Close()

			tools, err := client.ListTools(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tools)
			return nil
		},
	})
	return cmd
}
