package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONGraphStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "graph.json")
	store := NewJSONGraphStore(path)

	g := &graph.GraphData{
		Nodes: []graph.Node{
			{ID: "r1", Label: "Component", Properties: graph.NewProperties("zeta", "z", "alpha", 1.5)},
			{ID: "steel", Label: "Material", Properties: graph.NewProperties()},
		},
		Relationships: []graph.Relationship{
			{Source: "r1", Target: "steel", Type: "MADE_OF"},
		},
	}
	require.NoError(t, store.StoreGraph(ctx, g))
	assert.Equal(t, path, store.Path())

	loaded, err := store.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Relationships, 1)
	assert.Equal(t, "MADE_OF", loaded.Relationships[0].Type)

	first := loaded.Nodes[0].Properties.Oldest()
	require.NotNil(t, first)
	assert.Equal(t, "zeta", first.Key)
	assert.Equal(t, "alpha", first.Next().Key)
}

func TestJSONGraphStore_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := NewJSONGraphStore(filepath.Join(dir, "missing.json")).LoadGraph(ctx)
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"nodes":[]}`), 0644))
	_, err = NewJSONGraphStore(bad).LoadGraph(ctx)
	assert.True(t, errors.Is(err, graph.ErrInvalidPayload))

	assert.Error(t, NewJSONGraphStore(bad).StoreGraph(ctx, nil))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, NewJSONGraphStore(bad).StoreGraph(cancelled, &graph.GraphData{}), context.Canceled)
}

func TestScriptStore(t *testing.T) {
	ctx := context.Background()
	store := NewScriptStore(filepath.Join(t.TempDir(), "graph.cypher"))

	script := "// Generated Cypher Query\n// 1. Create Nodes\n"
	require.NoError(t, store.StoreScript(ctx, script))

	loaded, err := store.LoadScript(ctx)
	require.NoError(t, err)
	assert.Equal(t, script, loaded)
}
