// Package tools exposes the code graph to AI assistants over the Model
// Context Protocol: line-delimited JSON-RPC 2.0 on stdio with the standard
// initialize / tools/list / tools/call / ping methods, provided by the MCP
// SDK.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphhq/codegraph/internal/codegraph"
)

// maxResponseChars caps tool responses; longer output is truncated with a
// marker.
const maxResponseChars = 15_000

// Server wraps the MCP server with the codegraph tool handlers.
type Server struct {
	mcp *mcp.Server
	cg  *codegraph.CodeGraph
}

// NewServer creates an MCP server with all codegraph tools registered.
func NewServer(cg *codegraph.CodeGraph, version string) *Server {
	srv := &Server{
		cg: cg,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codegraph",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// Run serves requests over stdio until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_search",
		Description: "Search for symbols (functions, structs, traits, classes, etc.) in the code graph by name or keyword.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {
					"type": "string",
					"description": "Search query string to match against symbol names"
				},
				"limit": {
					"type": "number",
					"description": "Maximum number of results to return (default: 10)"
				}
			},
			"required": ["query"]
		}`),
	}, s.handleSearch)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_context",
		Description: "Build an AI-ready context for a task description. Returns relevant symbols, relationships, and code snippets.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"task": {
					"type": "string",
					"description": "Natural language description of the task or question"
				},
				"max_nodes": {
					"type": "number",
					"description": "Maximum number of symbols to include (default: 20)"
				}
			},
			"required": ["task"]
		}`),
	}, s.handleContext)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_callers",
		Description: "Find all callers of a given node (function, method, etc.) up to a specified depth.",
		InputSchema: nodeDepthSchema("The unique node ID to find callers for"),
	}, s.handleCallers)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_callees",
		Description: "Find all callees of a given node (function, method, etc.) up to a specified depth.",
		InputSchema: nodeDepthSchema("The unique node ID to find callees for"),
	}, s.handleCallees)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_impact",
		Description: "Compute the impact radius of a node: all symbols that directly or indirectly depend on it.",
		InputSchema: nodeDepthSchema("The unique node ID to compute impact for"),
	}, s.handleImpact)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_node",
		Description: "Retrieve detailed information about a single node by its ID.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"node_id": {
					"type": "string",
					"description": "The unique node ID to retrieve"
				}
			},
			"required": ["node_id"]
		}`),
	}, s.handleNode)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "codegraph_status",
		Description: "Return aggregate statistics about the code graph (node/edge/file counts, DB size, etc.).",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleStatus)
}

func nodeDepthSchema(idDescription string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"node_id": {
				"type": "string",
				"description": %q
			},
			"max_depth": {
				"type": "number",
				"description": "Maximum traversal depth (default: 3)"
			}
		},
		"required": ["node_id"]
	}`, idDescription))
}

// textResult wraps text in a tool result, truncated to the response limit.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: truncateResponse(text)},
		},
	}
}

// jsonResult marshals data to indented JSON and returns it as a tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return textResult(string(b))
}

// errResult returns a tool result flagged as an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// truncateResponse cuts a string at the response limit on a UTF-8 boundary
// and appends an ellipsis marker.
func truncateResponse(s string) string {
	if len(s) <= maxResponseChars {
		return s
	}
	end := maxResponseChars
	for end > 0 && (s[end]&0xC0) == 0x80 {
		end--
	}
	return fmt.Sprintf("%s\n\n[... truncated at %d chars]", s[:end], end)
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// getIntArg extracts an integer argument with a default value.
func getIntArg(args map[string]any, key string, defaultVal int) int {
	v, ok := args[key]
	if !ok {
		return defaultVal
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal
	}
	return int(f)
}
