package main

import (
	"github.com/spf13/cobra"

	"gamesage/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat endpoint over HTTP",
		Long: `Serve POST /chat and GET /healthz.

POST /chat takes {"query": "...", "history": [...], "session_id": "..."} and
returns the composed answer as markdown and HTML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := createApp(ctx, opts, needs{assistant: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.cfg.HTTPAddr
			}
			return server.Run(ctx, addr, server.New(app.assistant, app.debug).Handler(), app.debug)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	return cmd
}
