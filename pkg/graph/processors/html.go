package processors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/athapong/docgraph/pkg/graph"
)

// HTMLProcessor is responsible for processing HTML content.
type HTMLProcessor struct{}

// NewHTMLProcessor creates a new instance of HTMLProcessor.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{}
}

// Process strips scripts and styles, then converts the body to Markdown so
// tables and lists survive as structure the model can read.
func (p *HTMLProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Part, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from HTML content: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	title := strings.TrimSpace(doc.Find("title").First().Text())

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML body: %w", err)
	}

	text, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		// fall back to the bare text content
		text = doc.Find("body").Text()
	}
	text = strings.TrimSpace(text)

	if title != "" {
		text = "# " + title + "\n\n" + text
	}

	part := graph.TextPart(metadataString(metadata, "filename"), text)
	part.MIMEType = "text/html"
	return &part, nil
}

// SupportedTypes returns the MIME types supported by the HTMLProcessor.
func (p *HTMLProcessor) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}
