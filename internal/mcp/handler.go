package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/store"
)

const (
	defaultToolLimit = 50
	maxToolLimit     = 200
)

// --------------------------------------------------------------------------
// Argument extraction
// --------------------------------------------------------------------------

// projectIDArg returns the sanitized project_id argument. Agent input is
// treated like any other client input.
func projectIDArg(request mcp.CallToolRequest) (string, error) {
	raw, err := request.RequireString("project_id")
	id := security.SanitizeString(raw)
	if err != nil || id == "" {
		return "", errors.New(`missing required parameter "project_id"`)
	}
	return id, nil
}

// filterArg returns a sanitized optional string filter.
func filterArg(request mcp.CallToolRequest, key string) string {
	return security.SanitizeString(request.GetString(key, ""))
}

func flagArg(request mcp.CallToolRequest, key string) bool {
	return request.GetBool(key, false)
}

// limitArg returns the limit argument, defaulting to defaultToolLimit and
// kept within [1, maxToolLimit].
func limitArg(request mcp.CallToolRequest) int {
	n := request.GetInt("limit", defaultToolLimit)
	if n < 1 {
		return 1
	}
	if n > maxToolLimit {
		return maxToolLimit
	}
	return n
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. The agent sees the message
// and may retry; the MCP session stays open.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// storeError reports a failed store read. Missing content gets the hint
// instead of the raw error.
func storeError(err error, what, hint string) (*mcp.CallToolResult, error) {
	if errors.Is(err, store.ErrNotFound) {
		return toolError("%s not found. %s", what, hint)
	}
	return toolError("Failed to load %s: %v", what, err)
}

// jsonResource marshals data as a single JSON resource content.
func jsonResource(uri string, data interface{}) ([]mcp.ResourceContents, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
