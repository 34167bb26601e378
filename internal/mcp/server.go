// Package mcp serves the assistant as Model Context Protocol tools and
// provides a client for calling them.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gamesage/internal/answer/compose"
	"gamesage/internal/answer/policy"
	"gamesage/internal/assistant"
	"gamesage/internal/debug"
	"gamesage/internal/observability"
)

const (
	serverName = "gamesage"

	AskToolName     = "ask_game_question"
	EnforceToolName = "enforce_answer"
)

type Asker interface {
	Ask(ctx context.Context, query string, history []string) (assistant.Turn, error)
}

type Server struct {
	mcpServer *mcp.Server
	asker     Asker
	enforcer  *policy.Enforcer
	debug     *debug.Logger
}

// NewServer registers the tools. With a nil asker only enforce_answer is
// offered.
func NewServer(asker Asker, enforcer *policy.Enforcer, version string, debug *debug.Logger) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		asker:     asker,
		enforcer:  enforcer,
		debug:     debug,
	}

	if asker != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        AskToolName,
			Description: "Answers a question about a video game. Plot answers stay spoiler-free unless spoilers are asked for.",
		}, s.handleAsk)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        EnforceToolName,
		Description: "Applies the spoiler and topic policy to a drafted answer record and returns the composed text.",
	}, s.handleEnforce)

	return s
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, AskOutput{}, errors.New("query is required")
	}
	if in.SessionID != "" {
		ctx = observability.WithSessionID(ctx, in.SessionID)
	}

	turn, err := s.asker.Ask(ctx, in.Query, in.History)
	if err != nil {
		s.debug.Warnf("%s failed: %v", AskToolName, err)
		return nil, AskOutput{}, fmt.Errorf("failed to answer: %w", err)
	}

	out := askOutput(turn)
	return textResult(out.Response), out, nil
}

func (s *Server) handleEnforce(_ context.Context, _ *mcp.CallToolRequest, in EnforceInput) (*mcp.CallToolResult, EnforceOutput, error) {
	draft, err := recordFromArguments(in.Draft)
	if err != nil {
		return nil, EnforceOutput{}, err
	}

	rec := s.enforcer.Enforce(draft, in.Query)
	out := enforceOutput(rec, compose.Compose(rec))
	return textResult(out.Response), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// Serve runs the server on stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
