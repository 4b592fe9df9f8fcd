package graph

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Properties is an insertion-ordered property bag. Key order survives JSON
// decoding so generated scripts are reproducible.
type Properties = orderedmap.OrderedMap[string, interface{}]

// NewProperties builds a property bag from alternating key/value arguments.
// A trailing key without a value is stored as nil.
func NewProperties(kv ...interface{}) *Properties {
	props := orderedmap.New[string, interface{}]()
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		var value interface{}
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		props.Set(key, value)
	}
	return props
}

// PropertyCount returns the number of entries in props, treating nil as empty.
func PropertyCount(props *Properties) int {
	if props == nil {
		return 0
	}
	return props.Len()
}

// Node represents an entity in the knowledge graph
type Node struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Properties *Properties `json:"properties"`
}

// Relationship represents a directed, typed edge between two node ids
type Relationship struct {
	Source     string      `json:"source"`
	Target     string      `json:"target"`
	Type       string      `json:"type"`
	Properties *Properties `json:"properties,omitempty"`
}

// GraphData is the knowledge graph produced by a single extraction. It is
// treated as read-only once returned by an Extractor.
type GraphData struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// IsEmpty reports whether nothing was extracted.
func (g *GraphData) IsEmpty() bool {
	return g == nil || (len(g.Nodes) == 0 && len(g.Relationships) == 0)
}

// NodeIndex maps node ids to nodes. The first node wins when ids repeat.
type NodeIndex map[string]*Node

// NewNodeIndex builds the id lookup used to resolve relationship endpoints.
func NewNodeIndex(nodes []Node) NodeIndex {
	index := make(NodeIndex, len(nodes))
	for i := range nodes {
		if _, exists := index[nodes[i].ID]; !exists {
			index[nodes[i].ID] = &nodes[i]
		}
	}
	return index
}

// Lookup returns the node with the given id.
func (idx NodeIndex) Lookup(id string) (*Node, bool) {
	node, ok := idx[id]
	return node, ok
}

// GraphStats summarises a graph for logging and metrics
type GraphStats struct {
	NodeCount         int
	RelationshipCount int
	Labels            mapset.Set[string]
	RelationshipTypes mapset.Set[string]
	LabelCounts       map[string]int
	TypeCounts        map[string]int
}

// Stats counts nodes and relationships per label and type.
func (g *GraphData) Stats() GraphStats {
	stats := GraphStats{
		Labels:            mapset.NewThreadUnsafeSet[string](),
		RelationshipTypes: mapset.NewThreadUnsafeSet[string](),
		LabelCounts:       make(map[string]int),
		TypeCounts:        make(map[string]int),
	}
	if g == nil {
		return stats
	}

	stats.NodeCount = len(g.Nodes)
	stats.RelationshipCount = len(g.Relationships)
	for _, node := range g.Nodes {
		stats.Labels.Add(node.Label)
		stats.LabelCounts[node.Label]++
	}
	for _, rel := range g.Relationships {
		stats.RelationshipTypes.Add(rel.Type)
		stats.TypeCounts[rel.Type]++
	}
	return stats
}
