package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func staticFactory(extractor graph.Extractor) ExtractorFactory {
	return func(provider string) (graph.Extractor, string, error) {
		return extractor, "fake", nil
	}
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractHandler(t *testing.T) {
	doc := writeDoc(t, "datasheet.txt", "R1 is a 10k resistor")

	t.Run("populated", func(t *testing.T) {
		var seen []graph.Part
		kg := NewKnowledgeGraphTools(nil, staticFactory(graph.ExtractorFunc(func(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
			seen = parts
			return graph.NewExtraction(&graph.GraphData{
				Nodes: []graph.Node{{ID: "r1", Label: "Component", Properties: graph.NewProperties("value", "10k")}},
			}), nil
		})), nil)

		result, err := kg.extractHandler(context.Background(), callRequest(map[string]interface{}{"paths": " " + doc + " ,"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)

		text := resultText(t, result)
		assert.Contains(t, text, `MERGE (n:Component {value: "10k", id: "r1"})`)
		assert.Contains(t, text, "// Graph JSON:")
		require.Len(t, seen, 1)
		assert.Equal(t, "R1 is a 10k resistor", seen[0].Text)
	})

	t.Run("empty", func(t *testing.T) {
		kg := NewKnowledgeGraphTools(nil, staticFactory(graph.ExtractorFunc(func(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
			return graph.NewExtraction(&graph.GraphData{}), nil
		})), nil)

		result, err := kg.extractHandler(context.Background(), callRequest(map[string]interface{}{"paths": doc}))
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, pipeline.EmptyMessage, resultText(t, result))
	})

	t.Run("extraction failure", func(t *testing.T) {
		kg := NewKnowledgeGraphTools(nil, staticFactory(graph.ExtractorFunc(func(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
			return nil, graph.PayloadError("data missing 'nodes' or 'relationships' properties")
		})), nil)

		result, err := kg.extractHandler(context.Background(), callRequest(map[string]interface{}{"paths": doc}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, result), "Failed to generate graph."))
	})

	t.Run("missing paths", func(t *testing.T) {
		kg := NewKnowledgeGraphTools(nil, staticFactory(nil), nil)

		result, err := kg.extractHandler(context.Background(), callRequest(map[string]interface{}{"paths": " , "}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("factory error", func(t *testing.T) {
		kg := NewKnowledgeGraphTools(nil, func(provider string) (graph.Extractor, string, error) {
			return nil, provider, errors.New("OPENAI_API_KEY is not set")
		}, nil)

		result, err := kg.extractHandler(context.Background(), callRequest(map[string]interface{}{"paths": doc, "provider": "openai"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "OPENAI_API_KEY")
	})
}

func TestPipelineIsReusedPerProvider(t *testing.T) {
	calls := 0
	kg := NewKnowledgeGraphTools(nil, func(provider string) (graph.Extractor, string, error) {
		calls++
		return graph.ExtractorFunc(func(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
			return graph.NewExtraction(&graph.GraphData{}), nil
		}), provider, nil
	}, nil)

	first, err := kg.pipelineFor("prose")
	require.NoError(t, err)
	second, err := kg.pipelineFor("prose")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = kg.pipelineFor("gemini")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGenerateCypherHandler(t *testing.T) {
	kg := NewKnowledgeGraphTools(nil, staticFactory(nil), nil)

	tests := []struct {
		name     string
		graph    string
		isError  bool
		contains []string
	}{
		{
			name:  "compiles nodes and relationships",
			graph: `{"nodes":[{"id":"a","label":"Part","properties":{"name":"Bolt"}},{"id":"b","label":"Material","properties":{}}],"relationships":[{"source":"a","target":"b","type":"MADE_OF"}]}`,
			contains: []string{
				"// Generated Cypher Query",
				`MERGE (n:Part {name: "Bolt", id: "a"})`,
				`MERGE (n:Material {id: "b"})`,
				`MATCH (a:Part {id: "a"}), (b:Material {id: "b"})`,
				"MERGE (a)-[r:MADE_OF]->(b)",
			},
		},
		{
			name:     "warns about missing nodes",
			graph:    `{"nodes":[],"relationships":[{"source":"x","target":"y","type":"LINKS"}]}`,
			contains: []string{"// WARNING: Could not create relationship for missing node x, y: x -[LINKS]-> y"},
		},
		{
			name:     "rejects payload without relationships",
			graph:    `{"nodes":[]}`,
			isError:  true,
			contains: []string{"Invalid graph"},
		},
		{
			name:     "rejects empty argument",
			graph:    "  ",
			isError:  true,
			contains: []string{"graph must be a JSON string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := kg.generateCypherHandler(context.Background(), callRequest(map[string]interface{}{"graph": tt.graph}))
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)

			text := resultText(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.pdf", "docs"}, splitPaths(" a.pdf, ,docs "))
	assert.Nil(t, splitPaths(""))
}
