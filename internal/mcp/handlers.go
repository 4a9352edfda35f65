package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/triagekit/triagekit/internal/errors"
	"github.com/triagekit/triagekit/internal/ops"
	"github.com/triagekit/triagekit/internal/toolshed"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	database *sql.DB
	catalog  *toolshed.Catalog
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(database *sql.DB, catalog *toolshed.Catalog) *Handlers {
	return &Handlers{database: database, catalog: catalog}
}

// Request types for each tool

// FindingListRequest represents the arguments for finding_list.
type FindingListRequest struct {
	Package string `json:"package,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// FindingGetRequest represents the arguments for finding_get.
type FindingGetRequest struct {
	ID string `json:"id"`
}

// ArtifactListRequest represents the arguments for artifact_list.
type ArtifactListRequest struct {
	Package string `json:"package"`
}

// RunListRequest represents the arguments for run_list.
type RunListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleFindingList handles the finding_list tool call.
func (h *Handlers) HandleFindingList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FindingListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Findings(h.database, ops.FindingsInput{
		Package: input.Package,
		Tool:    input.Tool,
		Limit:   input.Limit,
		Offset:  input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFindingGet handles the finding_get tool call.
func (h *Handlers) HandleFindingGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FindingGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.GetFinding(h.database, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleArtifactList handles the artifact_list tool call.
func (h *Handlers) HandleArtifactList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ArtifactListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Artifacts(ctx, h.catalog, ops.ArtifactsInput{
		Package: input.Package,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRunList handles the run_list tool call.
func (h *Handlers) HandleRunList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RunListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Runs(h.database, ops.RunsInput{
		Limit: input.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if tErr, ok := err.(*errors.TriageError); ok {
		errorObj := map[string]any{
			"code":    tErr.Code,
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
