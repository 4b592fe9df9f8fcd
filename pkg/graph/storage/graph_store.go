package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
)

// GraphStore defines an interface for exporting knowledge graphs
type GraphStore interface {
	// StoreGraph persists a knowledge graph
	StoreGraph(ctx context.Context, g *graph.GraphData) error

	// LoadGraph loads a knowledge graph from storage
	LoadGraph(ctx context.Context) (*graph.GraphData, error)
}

// JSONGraphStore implements GraphStore using JSON files. Property order is
// kept as extracted.
type JSONGraphStore struct {
	filePath string
}

// NewJSONGraphStore creates a new JSON graph store
func NewJSONGraphStore(filePath string) *JSONGraphStore {
	return &JSONGraphStore{
		filePath: filePath,
	}
}

// Path returns the file the store reads and writes.
func (s *JSONGraphStore) Path() string {
	return s.filePath
}

// StoreGraph stores the knowledge graph as JSON
func (s *JSONGraphStore) StoreGraph(ctx context.Context, g *graph.GraphData) error {
	if g == nil {
		return errors.New("nil graph")
	}

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode graph")
	}
	return writeFile(ctx, s.filePath, data)
}

// LoadGraph loads a knowledge graph from a JSON file. The file must carry
// both the nodes and relationships arrays.
func (s *JSONGraphStore) LoadGraph(ctx context.Context) (*graph.GraphData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, err
	}

	g, err := graph.DecodeGraphData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", s.filePath)
	}
	return g, nil
}

// ScriptStore writes and reads generated Cypher scripts.
type ScriptStore struct {
	filePath string
}

// NewScriptStore creates a script store backed by filePath
func NewScriptStore(filePath string) *ScriptStore {
	return &ScriptStore{filePath: filePath}
}

// StoreScript writes the script text unchanged.
func (s *ScriptStore) StoreScript(ctx context.Context, script string) error {
	return writeFile(ctx, s.filePath, []byte(script))
}

// LoadScript reads a previously stored script.
func (s *ScriptStore) LoadScript(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
