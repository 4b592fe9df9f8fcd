package extractors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func geminiServer(t *testing.T, status int, text string) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
			return
		}
		body := map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []interface{}{map[string]interface{}{"text": text}},
					},
					"finishReason": "STOP",
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func newTestGeminiExtractor(t *testing.T, srv *httptest.Server, opts ...Option) *GeminiExtractor {
	t.Helper()
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)
	return NewGeminiExtractor(client, opts...)
}

func TestGeminiExtractor(t *testing.T) {
	parts := []graph.Part{graph.TextPart("datasheet.txt", "Connector J1 is made of brass")}

	t.Run("populated graph", func(t *testing.T) {
		srv, paths := geminiServer(t, http.StatusOK, `{"nodes":[{"id":"j1","label":"Component","properties":{}},{"id":"brass","label":"Material","properties":{}}],"relationships":[{"source":"j1","target":"brass","type":"MADE_OF"}]}`)

		extraction, err := newTestGeminiExtractor(t, srv, WithModel("gemini-test")).Extract(context.Background(), parts)
		require.NoError(t, err)
		assert.Equal(t, graph.OutcomePopulated, extraction.Outcome)
		assert.Len(t, extraction.Graph.Nodes, 2)
		require.Len(t, extraction.Graph.Relationships, 1)
		assert.Equal(t, "MADE_OF", extraction.Graph.Relationships[0].Type)

		require.Len(t, *paths, 1)
		assert.True(t, strings.HasSuffix((*paths)[0], "models/gemini-test:generateContent"), (*paths)[0])
	})

	t.Run("fenced empty graph", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusOK, "```json\n{\"nodes\":[],\"relationships\":[]}\n```")

		extraction, err := newTestGeminiExtractor(t, srv).Extract(context.Background(), parts)
		require.NoError(t, err)
		assert.Equal(t, graph.OutcomeEmpty, extraction.Outcome)
	})

	t.Run("nodes not an array", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusOK, `{"nodes":{},"relationships":[]}`)

		_, err := newTestGeminiExtractor(t, srv).Extract(context.Background(), parts)
		assert.True(t, errors.Is(err, graph.ErrInvalidPayload))
	})

	t.Run("unavailable", func(t *testing.T) {
		srv, _ := geminiServer(t, http.StatusServiceUnavailable, "")

		_, err := newTestGeminiExtractor(t, srv).Extract(context.Background(), parts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, graph.ErrTransport))
	})

	t.Run("no parts", func(t *testing.T) {
		srv, paths := geminiServer(t, http.StatusOK, "")

		_, err := newTestGeminiExtractor(t, srv).Extract(context.Background(), nil)
		assert.True(t, errors.Is(err, graph.ErrNoParts))
		assert.Empty(t, *paths)
	})
}

func TestBuildContents(t *testing.T) {
	texts := []graph.Part{graph.TextPart("a.txt", "alpha")}
	images := []graph.Part{graph.BlobPart("b.png", "image/png", []byte("png"))}

	contents := BuildContents(texts, images)
	require.Len(t, contents, 1)
	assert.EqualValues(t, genai.RoleUser, contents[0].Role)

	parts := contents[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, ExtractionPrompt, parts[0].Text)
	assert.True(t, strings.HasSuffix(parts[1].Text, "alpha"))
	require.NotNil(t, parts[2].InlineData)
	assert.Equal(t, "image/png", parts[2].InlineData.MIMEType)
	assert.Equal(t, []byte("png"), parts[2].InlineData.Data)
}

func TestKnowledgeGraphSchema(t *testing.T) {
	schema := KnowledgeGraphSchema()
	assert.Equal(t, []string{"nodes", "relationships"}, schema.Required)
	assert.Equal(t, []string{"id", "label", "properties"}, schema.Properties["nodes"].Items.Required)
	assert.Equal(t, []string{"source", "target", "type"}, schema.Properties["relationships"].Items.Required)
	assert.Equal(t, genai.TypeArray, schema.Properties["relationships"].Type)
}
