package graph

import "context"

// DocumentProcessor converts the raw bytes of one input file into a document
// part the extractor can send to a model.
type DocumentProcessor interface {
	Process(ctx context.Context, content []byte, metadata map[string]interface{}) (*Part, error)
	SupportedTypes() []string
}
