package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gamesage/cmd/gamesage/ui"
	"gamesage/internal/assistant"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}
}

func runChat(ctx context.Context, opts *rootOptions) error {
	app, err := createApp(ctx, opts, needs{assistant: true})
	if err != nil {
		return err
	}
	defer app.Close()

	renderer, err := newRenderer()
	if err != nil {
		app.debug.Warnf("failed to create renderer: %v", err)
	}

	model := ui.NewModel(app.assistant, assistant.NewHistory(app.cfg.HistorySize), renderer, app.debug)
	app.debug.Printf("chat session %s", model.SessionID())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
