package ipc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client talks to a running IPC server over streamable HTTP. The socket
// transports are meant for editor integrations that speak stdio framing
// themselves; the bundled REPL uses this client.
type Client struct {
	endpoint string
	token    string
	mcp      *client.Client

	tools []mcp.Tool
}

// NewClient creates a client for the given endpoint, e.g.
// "http://127.0.0.1:9745". token is sent as a bearer token when non-empty.
func NewClient(endpoint, token string) *Client {
	return &Client{endpoint: endpoint, token: token}
}

// Connect starts the transport and runs the MCP handshake.
func (c *Client) Connect(ctx context.Context) error {
	var opts []transport.StreamableHTTPCOption
	if c.token != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + c.token,
		}))
	}
	mcpClient, err := client.NewStreamableHttpClient(c.endpoint, opts...)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("starting transport: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "fluorite-flake-cli",
		Version: "1.0.0",
	}
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := mcpClient.Initialize(initCtx, initRequest); err != nil {
		mcpClient.Close()
		return fmt.Errorf("initializing session: %w", err)
	}

	c.mcp = mcpClient
	return nil
}

// Close tears the transport down.
func (c *Client) Close() error {
	if c.mcp == nil {
		return nil
	}
	return c.mcp.Close()
}

// ListTools fetches and caches the server's tool list.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.mcp == nil {
		return nil, fmt.Errorf("not connected")
	}
	result, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	c.tools = result.Tools
	return result.Tools, nil
}

// CallTool executes a tool and flattens its text content. A tool-reported
// error comes back as a Go error carrying the flattened message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	if c.mcp == nil {
		return "", fmt.Errorf("not connected")
	}
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := c.mcp.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", name, err)
	}

	var texts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, text.Text)
		}
	}
	joined := strings.Join(texts, "\n")
	if result.IsError {
		return "", fmt.Errorf("%s", joined)
	}
	return joined, nil
}
