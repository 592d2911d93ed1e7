package tools

import (
	gocontext "context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegraphhq/codegraph/internal/context"
	"github.com/codegraphhq/codegraph/internal/traverse"
)

// nodeSummary is the compact node rendering shared by list-style tools.
type nodeSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	File      string  `json:"file"`
	Line      int     `json:"line"`
	Signature string  `json:"signature,omitempty"`
	EdgeKind  string  `json:"edge_kind,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

func (s *Server) handleSearch(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	query := getStringArg(args, "query")
	if query == "" {
		return errResult("missing required parameter: query"), nil
	}
	limit := getIntArg(args, "limit", 10)

	results, err := s.cg.Search(query, limit)
	if err != nil {
		return errResult("search: " + err.Error()), nil
	}

	items := make([]nodeSummary, 0, len(results))
	for _, r := range results {
		items = append(items, nodeSummary{
			ID:        r.Node.ID,
			Name:      r.Node.Name,
			Kind:      string(r.Node.Kind),
			File:      r.Node.FilePath,
			Line:      r.Node.StartLine,
			Signature: r.Node.Signature,
			Score:     r.Score,
		})
	}
	return jsonResult(items), nil
}

func (s *Server) handleContext(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	task := getStringArg(args, "task")
	if task == "" {
		return errResult("missing required parameter: task"), nil
	}

	opts := context.DefaultOptions()
	opts.MaxNodes = getIntArg(args, "max_nodes", opts.MaxNodes)

	tc, err := s.cg.BuildContext(task, opts)
	if err != nil {
		return errResult("build context: " + err.Error()), nil
	}
	return textResult(context.FormatMarkdown(tc)), nil
}

func (s *Server) handleCallers(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleCallChain(req, s.cg.Callers)
}

func (s *Server) handleCallees(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleCallChain(req, s.cg.Callees)
}

func (s *Server) handleCallChain(req *mcp.CallToolRequest, query func(string, int) ([]traverse.Hit, error)) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	nodeID := getStringArg(args, "node_id")
	if nodeID == "" {
		return errResult("missing required parameter: node_id"), nil
	}
	maxDepth := getIntArg(args, "max_depth", 3)

	hits, err := query(nodeID, maxDepth)
	if err != nil {
		return errResult("traverse: " + err.Error()), nil
	}

	items := make([]nodeSummary, 0, len(hits))
	for _, hit := range hits {
		items = append(items, nodeSummary{
			ID:       hit.Node.ID,
			Name:     hit.Node.Name,
			Kind:     string(hit.Node.Kind),
			File:     hit.Node.FilePath,
			Line:     hit.Node.StartLine,
			EdgeKind: string(hit.Edge.Kind),
		})
	}
	return jsonResult(items), nil
}

func (s *Server) handleImpact(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	nodeID := getStringArg(args, "node_id")
	if nodeID == "" {
		return errResult("missing required parameter: node_id"), nil
	}
	maxDepth := getIntArg(args, "max_depth", 3)

	sub, err := s.cg.ImpactRadius(nodeID, maxDepth)
	if err != nil {
		return errResult("impact: " + err.Error()), nil
	}

	nodes := make([]nodeSummary, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		nodes = append(nodes, nodeSummary{
			ID:   n.ID,
			Name: n.Name,
			Kind: string(n.Kind),
			File: n.FilePath,
			Line: n.StartLine,
		})
	}
	return jsonResult(map[string]any{
		"node_count": len(sub.Nodes),
		"edge_count": len(sub.Edges),
		"nodes":      nodes,
	}), nil
}

func (s *Server) handleNode(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	nodeID := getStringArg(args, "node_id")
	if nodeID == "" {
		return errResult("missing required parameter: node_id"), nil
	}

	node, err := s.cg.Node(nodeID)
	if err != nil {
		return errResult("get node: " + err.Error()), nil
	}
	if node == nil {
		return textResult("Node not found: " + nodeID), nil
	}
	return jsonResult(node), nil
}

func (s *Server) handleStatus(_ gocontext.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.cg.Stats()
	if err != nil {
		return errResult("stats: " + err.Error()), nil
	}
	return jsonResult(stats), nil
}
