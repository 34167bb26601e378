package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gamesage/internal/observability"
)

const wordWrap = 80

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		sessionID string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := createApp(ctx, opts, needs{assistant: true})
			if err != nil {
				return err
			}
			defer app.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			ctx = observability.WithSessionID(ctx, sessionID)

			turn, err := app.assistant.Ask(ctx, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}

			out := turn.Answer
			if !plain {
				out = renderMarkdown(out, app)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if turn.ID != 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "turn %d (rate it with: gamesage rate %d <1-5>)\n", turn.ID, turn.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to log the turn under")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw markdown instead of rendering it")
	return cmd
}

func newRenderer() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
}

// renderMarkdown falls back to the raw text when rendering fails.
func renderMarkdown(md string, app *app) string {
	r, err := newRenderer()
	if err != nil {
		app.debug.Warnf("failed to create renderer: %v", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		app.debug.Warnf("render failed: %v", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}
