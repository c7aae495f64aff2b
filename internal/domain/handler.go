package domain

import (
	"context"
)

// ToolHandler processes requests for a family of tools sharing a name prefix.
type ToolHandler interface {
	// Handle processes an MCP tool call request.
	// Handlers normalize their own failures: any fault inside a tool call
	// is returned as a ToolResponse with IsError set, so a non-nil error
	// from Handle indicates a handler bug, not a failed tool call.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns available tools for this handler.
	ListTools() []ToolDefinition

	// ToolName returns the identifier for this handler.
	// This is used for routing requests to the appropriate handler.
	ToolName() string
}
