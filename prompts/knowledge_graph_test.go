package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeGraphPromptHandler(t *testing.T) {
	var request mcp.GetPromptRequest
	request.Params.Arguments = map[string]string{"paths": "docs/datasheet.pdf", "focus": "part numbers"}

	result, err := knowledgeGraphPromptHandler(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcp.RoleUser, result.Messages[0].Role)

	content, ok := result.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, content.Text, "knowledge graph")
	assert.Contains(t, content.Text, "extract_knowledge_graph tool on: docs/datasheet.pdf")
	assert.Contains(t, content.Text, "Pay particular attention to: part numbers")
}

func TestKnowledgeGraphPromptHandlerWithoutArguments(t *testing.T) {
	result, err := knowledgeGraphPromptHandler(context.Background(), mcp.GetPromptRequest{})
	require.NoError(t, err)

	content, ok := result.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.NotContains(t, content.Text, "extract_knowledge_graph tool on")
}
