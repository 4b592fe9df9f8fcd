// Package extractors implements graph.Extractor against generative models
// (Gemini and OpenAI-compatible chat APIs) and an offline NLP fallback.
package extractors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sirupsen/logrus"
)

const documentHeader = "\n\n--- DOCUMENT CONTENT ---\n"

// ExtractionPrompt instructs the model to return a graph matching the schema.
const ExtractionPrompt = `
You are an expert system designed to extract structured information from technical documents about product parts.
Your task is to analyze the provided document pages (as images or text) and construct a detailed knowledge graph.
Identify all key entities (components, specifications, materials, manufacturers, part numbers, etc.) and the relationships between them.

Output a JSON object that strictly adheres to the provided schema.
- Every node must have a unique 'id', a 'label', and a 'properties' object. The 'id' should be a descriptive, concise, snake_case string. The 'label' should be in PascalCase.
- Capture all relevant details in the 'properties' objects for both nodes and relationships.
- Relationships must connect nodes using their 'id' values. The relationship 'type' must be in UPPERCASE_SNAKE_CASE.
- Ensure the graph is comprehensive and accurately reflects the information in the document.
- If no meaningful entities or relationships can be extracted, return an object with empty arrays for 'nodes' and 'relationships'.
`

// schemaHint spells out the shape for APIs without structured schemas.
const schemaHint = `
The JSON object must have exactly this shape:
{"nodes": [{"id": string, "label": string, "properties": object}],
 "relationships": [{"source": string, "target": string, "type": string, "properties": object}]}
`

type config struct {
	model       string
	tokenBudget int
	logger      *logrus.Logger
}

// Option configures an extractor
type Option func(*config)

// WithModel overrides the provider's default model name.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTokenBudget rejects requests whose text parts are estimated above
// budget tokens. Zero disables the check.
func WithTokenBudget(budget int) Option {
	return func(c *config) {
		c.tokenBudget = budget
	}
}

// WithLogger sets the extractor's logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(defaultModel string, opts []Option) config {
	c := config{model: defaultModel}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return c
}

var encoding = sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
	return tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
})

// EstimateTokens counts text tokens with the cl100k encoding, or roughly a
// quarter of the byte length when the encoding cannot be loaded.
func EstimateTokens(text string) int {
	enc, err := encoding()
	if err != nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// prepareParts splits parts and enforces the preconditions shared by every
// model-backed extractor.
func (c config) prepareParts(parts []graph.Part) (texts, images []graph.Part, err error) {
	texts, images = graph.SplitParts(parts)
	if len(texts) == 0 && len(images) == 0 {
		return nil, nil, errors.WithStack(graph.ErrNoParts)
	}

	if c.tokenBudget > 0 {
		var b strings.Builder
		for _, part := range texts {
			b.WriteString(part.Text)
		}
		tokens := EstimateTokens(b.String())
		c.logger.WithFields(logrus.Fields{
			"tokens": tokens,
			"budget": c.tokenBudget,
		}).Debug("Estimated prompt size")
		if tokens > c.tokenBudget {
			return nil, nil, errors.Wrapf(graph.ErrTooLarge, "%d tokens over a budget of %d", tokens, c.tokenBudget)
		}
	}
	return texts, images, nil
}

func textPrompt(part graph.Part) string {
	return documentHeader + part.Text
}

func partNames(parts []graph.Part) string {
	names := make([]string, len(parts))
	for i, part := range parts {
		names[i] = part.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("part_%d", i)
		}
	}
	return strings.Join(names, ",")
}
