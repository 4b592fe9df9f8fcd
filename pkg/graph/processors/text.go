package processors

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/athapong/docgraph/pkg/graph"
)

// TextProcessor passes plain text documents through unchanged.
type TextProcessor struct{}

func NewTextProcessor() *TextProcessor {
	return &TextProcessor{}
}

func (p *TextProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Part, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("text document is not valid UTF-8")
	}
	part := graph.TextPart(metadataString(metadata, "filename"), string(content))
	if mimeType := metadataString(metadata, "mime_type"); mimeType != "" {
		part.MIMEType = mimeType
	}
	return &part, nil
}

func (p *TextProcessor) SupportedTypes() []string {
	return []string{"text/*", "application/json", "application/xml"}
}

// ImageProcessor keeps image pages as binary parts for multimodal models.
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

func (p *ImageProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Part, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	mimeType := metadataString(metadata, "mime_type")
	if mimeType == "" {
		return nil, fmt.Errorf("image MIME type is unknown")
	}
	part := graph.BlobPart(metadataString(metadata, "filename"), mimeType, content)
	return &part, nil
}

func (p *ImageProcessor) SupportedTypes() []string {
	return []string{"image/*"}
}

func metadataString(metadata map[string]interface{}, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}
