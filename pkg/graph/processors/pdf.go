package processors

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/ledongthuc/pdf"
)

type PDFProcessor struct{}

func NewPDFProcessor() *PDFProcessor {
	return &PDFProcessor{}
}

// Process extracts the plain text of every readable page. Pages that fail to
// decode are skipped.
func (p *PDFProcessor) Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*graph.Part, error) {
	reader := bytes.NewReader(content)

	r, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var pages []string
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, fmt.Sprintf("[page %d]\n%s", pageIndex, text))
		}
	}

	part := graph.TextPart(metadataString(metadata, "filename"), strings.Join(pages, "\n\n"))
	part.MIMEType = "application/pdf"
	return &part, nil
}

func (p *PDFProcessor) SupportedTypes() []string {
	return []string{"application/pdf"}
}
