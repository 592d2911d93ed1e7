package context

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatMarkdown renders a task context as Markdown for terminal or LLM
// consumption.
func FormatMarkdown(tc *TaskContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Context for: %s\n\n", tc.Query)
	fmt.Fprintf(&sb, "%s\n", tc.Summary)

	if len(tc.EntryPoints) > 0 {
		sb.WriteString("\n## Relevant symbols\n\n")
		for _, n := range tc.EntryPoints {
			fmt.Fprintf(&sb, "- **%s** (%s) — %s:%d\n", n.Name, n.Kind, n.FilePath, n.StartLine)
			if n.Signature != "" {
				fmt.Fprintf(&sb, "  `%s`\n", n.Signature)
			}
			if n.Docstring != "" {
				fmt.Fprintf(&sb, "  %s\n", firstLine(n.Docstring))
			}
		}
	}

	if len(tc.Subgraph.Edges) > 0 {
		sb.WriteString("\n## Relationships\n\n")
		names := map[string]string{}
		for _, n := range tc.Subgraph.Nodes {
			names[n.ID] = n.Name
		}
		for _, e := range tc.Subgraph.Edges {
			src, tgt := names[e.Source], names[e.Target]
			if src == "" || tgt == "" {
				continue
			}
			fmt.Fprintf(&sb, "- %s —%s→ %s\n", src, e.Kind, tgt)
		}
	}

	if len(tc.CodeBlocks) > 0 {
		sb.WriteString("\n## Code\n")
		for _, block := range tc.CodeBlocks {
			fmt.Fprintf(&sb, "\n### %s:%d-%d\n\n```\n%s\n```\n",
				block.FilePath, block.StartLine, block.EndLine, block.Content)
		}
	}

	if len(tc.RelatedFiles) > 0 {
		sb.WriteString("\n## Related files\n\n")
		for _, f := range tc.RelatedFiles {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	return sb.String()
}

// FormatJSON renders a task context as indented JSON.
func FormatJSON(tc *TaskContext) string {
	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func firstLine(s string) string {
	if pos := strings.IndexByte(s, '\n'); pos >= 0 {
		return s[:pos]
	}
	return s
}
