package prompts

import (
	"context"
	"fmt"

	"github.com/athapong/docgraph/pkg/graph/extractors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterKnowledgeGraphPrompt(s *server.MCPServer) {
	prompt := mcp.NewPrompt("knowledge_graph_extraction",
		mcp.WithPromptDescription("Extract a knowledge graph from product part documents and review the generated Cypher"),
		mcp.WithArgument("paths", mcp.ArgumentDescription("Comma-separated document files or directories")),
		mcp.WithArgument("focus", mcp.ArgumentDescription("Entities to pay particular attention to, e.g. materials or part numbers")),
	)
	s.AddPrompt(prompt, knowledgeGraphPromptHandler)
}

func knowledgeGraphPromptHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	paths := request.Params.Arguments["paths"]
	focus := request.Params.Arguments["focus"]

	text := extractors.ExtractionPrompt
	if paths != "" {
		text += fmt.Sprintf("\nUse the extract_knowledge_graph tool on: %s\n", paths)
	}
	if focus != "" {
		text += fmt.Sprintf("Pay particular attention to: %s\n", focus)
	}
	text += "Review the returned Cypher script. Report every WARNING line and any node that looks duplicated under a different id.\n"

	return &mcp.GetPromptResult{
		Description: "Knowledge graph extraction",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}, nil
}
