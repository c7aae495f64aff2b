package application

import (
	"context"
	"errors"
	"fmt"

	"memvid-mcp-server/internal/domain"
)

// MemoryHandler implements ToolHandler for the memory_* tools.
// Each tool call is compiled into one memvid CLI invocation, executed
// through the CommandRunner, and rendered by the ResultFormatter. The
// handler is stateless: nothing survives between calls except the
// immutable configuration it was constructed with.
type MemoryHandler struct {
	runner    domain.CommandRunner
	formatter domain.ResultFormatter
	memvid    *domain.MemvidConfig
	logger    *StructuredLogger
}

// NewMemoryHandler creates a new MemoryHandler instance.
func NewMemoryHandler(runner domain.CommandRunner, formatter domain.ResultFormatter, memvid *domain.MemvidConfig) *MemoryHandler {
	return &MemoryHandler{
		runner:    runner,
		formatter: formatter,
		memvid:    memvid,
		logger:    NewStructuredLogger(),
	}
}

// Tool name constants for memory operations
const (
	ToolMemoryRemember = "memory_remember"
	ToolMemoryRecall   = "memory_recall"
	ToolMemoryList     = "memory_list"
	ToolMemoryStats    = "memory_stats"
	ToolMemoryCreate   = "memory_create"
)

// ToolName returns the identifier for this handler.
func (h *MemoryHandler) ToolName() string {
	return "memory"
}

// pathSchema is shared by every tool that can fall back to the
// process-wide default memory file.
func pathSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Path to the memory file (defaults to MEMVID_FILE)",
	}
}

// ListTools returns the five memory tools with their input schemas.
// Numeric fields are declared as numbers so MCP clients can validate
// before dispatch.
func (h *MemoryHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolMemoryRemember,
			Description: "Store content in persistent memory",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"content": map[string]interface{}{
						"type":        "string",
						"description": "The content to store",
					},
					"path": pathSchema(),
					"uri": map[string]interface{}{
						"type":        "string",
						"description": "URI for hierarchical addressing (e.g., mv2://topics/rust)",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Title for the content",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Tags to attach to the content",
					},
				},
				Required: []string{"content"},
			},
		},
		{
			Name:        ToolMemoryRecall,
			Description: "Search memory content with full-text search",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query",
					},
					"path": pathSchema(),
					"scope": map[string]interface{}{
						"type":        "string",
						"description": "URI prefix filter applied by the store",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        ToolMemoryList,
			Description: "Browse memory entries chronologically",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": pathSchema(),
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of entries",
					},
					"since": map[string]interface{}{
						"type":        "number",
						"description": "Only entries at or after this Unix timestamp",
					},
					"until": map[string]interface{}{
						"type":        "number",
						"description": "Only entries at or before this Unix timestamp",
					},
				},
				Required: []string{},
			},
		},
		{
			Name:        ToolMemoryStats,
			Description: "Get statistics about the memory file",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": pathSchema(),
				},
				Required: []string{},
			},
		},
		{
			Name:        ToolMemoryCreate,
			Description: "Create a new memory file",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path for the new memory file",
					},
				},
				Required: []string{"path"},
			},
		},
	}
}

// Handle processes an MCP tool call request for memory operations.
// This is the single failure boundary: whatever stage fails — argument
// validation, path resolution, process execution or output parsing — the
// caller receives exactly one text response and never a fault.
func (h *MemoryHandler) Handle(ctx context.Context, req *domain.ToolRequest) (resp *domain.ToolResponse, retErr error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	// Last-resort boundary: a tool call must always produce a response.
	defer func() {
		if r := recover(); r != nil {
			h.logger.LogError("tool call panicked", fmt.Errorf("%v", r), map[string]interface{}{
				"tool": req.Name,
			})
			resp = domain.ErrorResponse(fmt.Sprintf("Error: %v", r))
			retErr = nil
		}
	}()

	text, err := h.dispatch(ctx, req)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			h.logger.LogError("tool call failed", err, map[string]interface{}{
				"tool":       req.Name,
				"error_code": derr.Code,
			})
			// Unknown tools get their own response shape and never spawn
			// a subprocess.
			if derr.Code == domain.SchemaMismatchError {
				return domain.ErrorResponse(derr.Message), nil
			}
			return domain.ErrorResponse("Error: " + derr.Message), nil
		}

		h.logger.LogError("tool call failed", err, map[string]interface{}{
			"tool": req.Name,
		})
		return domain.ErrorResponse("Error: " + err.Error()), nil
	}

	return domain.TextResponse(text), nil
}

// dispatch routes the call through its three stages: compile the argument
// bag into an argument vector, invoke the subprocess, interpret its
// output. Control never re-enters a prior stage and nothing is retried.
func (h *MemoryHandler) dispatch(ctx context.Context, req *domain.ToolRequest) (string, error) {
	switch req.Name {
	case ToolMemoryRemember:
		return h.handleRemember(ctx, req.Arguments)
	case ToolMemoryRecall:
		return h.handleRecall(ctx, req.Arguments)
	case ToolMemoryList:
		return h.handleList(ctx, req.Arguments)
	case ToolMemoryStats:
		return h.handleStats(ctx, req.Arguments)
	case ToolMemoryCreate:
		return h.handleCreate(ctx, req.Arguments)
	default:
		return "", &domain.Error{
			Code:    domain.SchemaMismatchError,
			Message: fmt.Sprintf("Unknown tool: %s", req.Name),
		}
	}
}

// handleRemember handles the memory_remember tool call.
func (h *MemoryHandler) handleRemember(ctx context.Context, args map[string]interface{}) (string, error) {
	req, err := parseRememberRequest(args, h.memvid)
	if err != nil {
		return "", err
	}

	result := h.runner.Run(ctx, req.args())
	return h.formatter.FormatStore(result)
}

// handleRecall handles the memory_recall tool call.
func (h *MemoryHandler) handleRecall(ctx context.Context, args map[string]interface{}) (string, error) {
	req, err := parseRecallRequest(args, h.memvid)
	if err != nil {
		return "", err
	}

	result := h.runner.Run(ctx, req.args())
	return h.formatter.FormatSearch(result)
}

// handleList handles the memory_list tool call.
func (h *MemoryHandler) handleList(ctx context.Context, args map[string]interface{}) (string, error) {
	req, err := parseListRequest(args, h.memvid)
	if err != nil {
		return "", err
	}

	result := h.runner.Run(ctx, req.args())
	return h.formatter.FormatTimeline(result)
}

// handleStats handles the memory_stats tool call.
func (h *MemoryHandler) handleStats(ctx context.Context, args map[string]interface{}) (string, error) {
	req, err := parseStatsRequest(args, h.memvid)
	if err != nil {
		return "", err
	}

	result := h.runner.Run(ctx, req.args())
	return h.formatter.FormatStats(result)
}

// handleCreate handles the memory_create tool call.
func (h *MemoryHandler) handleCreate(ctx context.Context, args map[string]interface{}) (string, error) {
	req, err := parseCreateRequest(args)
	if err != nil {
		return "", err
	}

	result := h.runner.Run(ctx, req.args())
	return h.formatter.FormatCreate(result)
}
