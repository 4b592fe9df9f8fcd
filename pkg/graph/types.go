package graph

import (
	"context"
	"strings"
)

// Part is a single document page handed to an Extractor. Binary parts carry
// Data with a MIME type; text parts carry Text.
type Part struct {
	Name     string
	MIMEType string
	Data     []byte
	Text     string
}

// TextPart creates a plain text document part
func TextPart(name, text string) Part {
	return Part{Name: name, MIMEType: "text/plain", Text: text}
}

// BlobPart creates a binary document part such as an image page
func BlobPart(name, mimeType string, data []byte) Part {
	return Part{Name: name, MIMEType: mimeType, Data: data}
}

// IsImage reports whether the part is image content a model can read.
func (p Part) IsImage() bool {
	return strings.HasPrefix(p.MIMEType, "image/") && len(p.Data) > 0
}

// IsText reports whether the part carries non-blank text.
func (p Part) IsText() bool {
	return len(p.Data) == 0 && strings.TrimSpace(p.Text) != ""
}

// SplitParts separates usable text and image parts, preserving order.
// Parts that are neither are dropped.
func SplitParts(parts []Part) (texts []Part, images []Part) {
	for _, part := range parts {
		switch {
		case part.IsImage():
			images = append(images, part)
		case part.IsText():
			texts = append(texts, part)
		}
	}
	return texts, images
}

// Outcome tags a successful extraction
type Outcome int

const (
	// OutcomeEmpty means the model returned a valid graph with no nodes and
	// no relationships.
	OutcomeEmpty Outcome = iota
	// OutcomePopulated means the graph has content.
	OutcomePopulated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Extraction is the tagged result of an Extractor call. Failures are
// reported through the returned error instead.
type Extraction struct {
	Outcome Outcome
	Graph   *GraphData
}

// NewExtraction tags a decoded graph as empty or populated.
func NewExtraction(g *GraphData) *Extraction {
	if g.IsEmpty() {
		return &Extraction{Outcome: OutcomeEmpty, Graph: g}
	}
	return &Extraction{Outcome: OutcomePopulated, Graph: g}
}

// Extractor turns document parts into a knowledge graph.
type Extractor interface {
	Extract(ctx context.Context, parts []Part) (*Extraction, error)
}

// ExtractorFunc adapts a function to the Extractor interface
type ExtractorFunc func(ctx context.Context, parts []Part) (*Extraction, error)

// Extract implements Extractor
func (f ExtractorFunc) Extract(ctx context.Context, parts []Part) (*Extraction, error) {
	return f(ctx, parts)
}
