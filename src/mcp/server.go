// Package mcp exposes the overlay's control ops as MCP tools over stdio so an
// agent can drive a running overlay.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stealth-overlay/src/control"
	"stealth-overlay/src/logutil"
)

// Backend forwards a request to the resident. *control.Client satisfies it.
type Backend interface {
	Do(ctx context.Context, req control.Request) (string, error)
}

// Handlers turns tool calls into control requests.
type Handlers struct {
	backend Backend
}

func NewHandlers(b Backend) *Handlers {
	return &Handlers{backend: b}
}

// Handler returns the tool handler for op.
func (h *Handlers) Handler(op string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		creq, err := decode(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		creq.Op = op
		if creq.NeedsPrompt() && creq.Prompt == "" {
			return mcp.NewToolResultError("prompt is required"), nil
		}

		reply, err := h.backend.Do(ctx, creq)
		if err != nil {
			var remote *control.RemoteError
			if errors.As(err, &remote) {
				return mcp.NewToolResultError(remote.Message), nil
			}
			log.Printf("mcp: %s failed: %v", op, err)
			return mcp.NewToolResultError(fmt.Sprintf("overlay unreachable: %v", err)), nil
		}

		switch op {
		case control.OpGetPrimaryKey, control.OpGetSecondaryKey:
			if reply == "" {
				reply = "not set"
			} else {
				reply = logutil.RedactKey(reply)
			}
		}
		return mcp.NewToolResultText(reply), nil
	}
}

// decode copies the tool arguments into a control request. Numbers arrive
// as JSON floats and land in the int fields.
func decode(req mcp.CallToolRequest) (control.Request, error) {
	var out control.Request
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

// NewServer creates an MCP server with one tool per control op.
func NewServer(b Backend, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"stealth-overlay",
		version,
		server.WithToolCapabilities(true),
	)
	h := NewHandlers(b)
	for _, e := range toolRegistry {
		s.AddTool(e.def, h.Handler(e.op))
	}
	return s
}

// Serve runs the MCP server on stdio until stdin closes.
func Serve(b Backend, version string) error {
	return server.ServeStdio(NewServer(b, version))
}
