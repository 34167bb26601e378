package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gamesage/internal/debug"
)

// Client calls the gamesage tools on a connected server.
type Client struct {
	client  *mcp.Client
	session *mcp.ClientSession
	debug   *debug.Logger
}

func NewClient(version string, debug *debug.Logger) *Client {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "gamesage-client",
		Version: version,
	}, nil)

	return &Client{client: client, debug: debug}
}

// ConnectCommand starts name with args as an MCP server over stdio.
func (c *Client) ConnectCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	return c.Connect(ctx, &mcp.CommandTransport{Command: cmd})
}

func (c *Client) Connect(ctx context.Context, transport mcp.Transport) error {
	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server: %w", err)
	}
	c.session = session
	c.debug.Println("Connected to MCP server")
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	args := map[string]any{"query": in.Query}
	if len(in.History) > 0 {
		args["history"] = in.History
	}
	if in.SessionID != "" {
		args["session_id"] = in.SessionID
	}

	var out AskOutput
	err := c.call(ctx, AskToolName, args, &out)
	return out, err
}

func (c *Client) Enforce(ctx context.Context, in EnforceInput) (EnforceOutput, error) {
	draft := in.Draft
	if draft == nil {
		draft = map[string]any{}
	}

	var out EnforceOutput
	err := c.call(ctx, EnforceToolName, map[string]any{
		"draft": draft,
		"query": in.Query,
	}, &out)
	return out, err
}

func (c *Client) call(ctx context.Context, tool string, args map[string]any, dst any) error {
	if c.session == nil {
		return errors.New("MCP client is not connected")
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", tool, err)
	}
	if result.IsError {
		return fmt.Errorf("%s: %s", tool, resultText(result))
	}

	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return fmt.Errorf("failed to read %s result: %w", tool, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", tool, err)
	}
	c.debug.Printf("%s result: %s", tool, resultText(result))
	return nil
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ListTools describes the server's tools, one per line.
func (c *Client) ListTools(ctx context.Context) (string, error) {
	if c.session == nil {
		return "", errors.New("MCP client is not connected")
	}

	result, err := c.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return "", fmt.Errorf("failed to list tools: %w", err)
	}

	toolDescriptions := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		description := fmt.Sprintf("- %s: %s", tool.Name, tool.Description)
		if tool.InputSchema != nil {
			schemaJSON, _ := json.Marshal(tool.InputSchema)
			description += fmt.Sprintf(" (Schema: %s)", string(schemaJSON))
		}
		toolDescriptions = append(toolDescriptions, description)
	}

	return strings.Join(toolDescriptions, "\n"), nil
}
