package extractors

import (
	"context"
	"time"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// KnowledgeGraphSchema is the structured-output schema sent to Gemini.
func KnowledgeGraphSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"nodes": {
				Type:        genai.TypeArray,
				Description: "List of all entities (nodes) in the knowledge graph.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id": {
							Type:        genai.TypeString,
							Description: "A unique identifier for the node (e.g., 'resistor_r1'). Should be concise and descriptive, in snake_case.",
						},
						"label": {
							Type:        genai.TypeString,
							Description: "The primary category or type of the entity (e.g., 'Component', 'Specification', 'Material'). Should be in PascalCase.",
						},
						"properties": {
							Type:        genai.TypeObject,
							Description: "A key-value map of attributes for the node. All relevant data from the document should be captured here. For example, {'name': 'R1', 'value': '10kΩ', 'tolerance': '5%'}.",
						},
					},
					Required: []string{"id", "label", "properties"},
				},
			},
			"relationships": {
				Type:        genai.TypeArray,
				Description: "List of all connections (relationships) between the entities.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"source": {
							Type:        genai.TypeString,
							Description: "The 'id' of the source node for the relationship.",
						},
						"target": {
							Type:        genai.TypeString,
							Description: "The 'id' of the target node for the relationship.",
						},
						"type": {
							Type:        genai.TypeString,
							Description: "The type of the relationship, in uppercase snake_case (e.g., 'HAS_SPECIFICATION', 'MANUFACTURED_BY', 'PART_OF').",
						},
						"properties": {
							Type:        genai.TypeObject,
							Description: "A key-value map of attributes for the relationship, if any.",
						},
					},
					Required: []string{"source", "target", "type"},
				},
			},
		},
		Required: []string{"nodes", "relationships"},
	}
}

// GeminiExtractor extracts graphs with a Gemini model using structured output.
type GeminiExtractor struct {
	client *genai.Client
	config
}

// NewGeminiExtractor wraps an already configured client.
func NewGeminiExtractor(client *genai.Client, opts ...Option) *GeminiExtractor {
	return &GeminiExtractor{
		client: client,
		config: newConfig(DefaultGeminiModel, opts),
	}
}

// BuildContents assembles the request: prompt first, then text parts, then
// image parts.
func BuildContents(texts, images []graph.Part) []*genai.Content {
	parts := make([]*genai.Part, 0, 1+len(texts)+len(images))
	parts = append(parts, genai.NewPartFromText(ExtractionPrompt))
	for _, text := range texts {
		parts = append(parts, genai.NewPartFromText(textPrompt(text)))
	}
	for _, image := range images {
		parts = append(parts, genai.NewPartFromBytes(image.Data, image.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// Extract implements graph.Extractor
func (e *GeminiExtractor) Extract(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
	texts, images, err := e.prepareParts(parts)
	if err != nil {
		return nil, err
	}

	logger := e.logger.WithFields(logrus.Fields{
		"model":  e.model,
		"texts":  len(texts),
		"images": len(images),
		"files":  partNames(parts),
	})
	logger.Debug("Calling Gemini")

	start := time.Now()
	resp, err := e.client.Models.GenerateContent(ctx, e.model, BuildContents(texts, images), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   KnowledgeGraphSchema(),
	})
	if err != nil {
		return nil, graph.TransportError(err)
	}

	g, err := graph.DecodeGraphData([]byte(resp.Text()))
	if err != nil {
		logger.WithError(err).Error("Failed to parse Gemini response as a graph")
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"nodes":         len(g.Nodes),
		"relationships": len(g.Relationships),
		"elapsed":       time.Since(start).String(),
	}).Info("Gemini extraction finished")
	return graph.NewExtraction(g), nil
}
