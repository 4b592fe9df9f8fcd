// Package cypher compiles knowledge graphs into idempotent Cypher upsert
// scripts. Compilation never fails: relationships whose endpoints cannot be
// resolved are reported as inline warning comments and skipped.
package cypher

import (
	"fmt"
	"strings"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/athapong/docgraph/pkg/graph/metrics"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	HeaderComment        = "// Generated Cypher Query"
	NodesComment         = "// 1. Create Nodes"
	RelationshipsComment = "// 2. Create Relationships"
	WarningPrefix        = "// WARNING: "
)

var commentEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

// Warning records a relationship that was skipped because an endpoint id
// matched no node.
type Warning struct {
	Index   int
	Source  string
	Target  string
	Type    string
	Missing []string
}

// String renders the warning as a single comment line.
func (w Warning) String() string {
	missing := make([]string, len(w.Missing))
	for i, id := range w.Missing {
		missing[i] = commentEscaper.Replace(id)
	}
	return fmt.Sprintf("%sCould not create relationship for missing node %s: %s -[%s]-> %s",
		WarningPrefix,
		strings.Join(missing, ", "),
		commentEscaper.Replace(w.Source),
		commentEscaper.Replace(w.Type),
		commentEscaper.Replace(w.Target),
	)
}

// Script is a compiled upsert script. Relationship entries keep the order of
// the input relationships; each is either a statement or a warning line.
type Script struct {
	NodeStatements         []string
	RelationshipStatements []string
	Warnings               []Warning

	relationshipEntries []string
}

// String renders the complete script.
func (s *Script) String() string {
	var b strings.Builder
	b.WriteString(HeaderComment + "\n")
	b.WriteString(NodesComment + "\n")
	for _, stmt := range s.NodeStatements {
		b.WriteString(stmt + "\n")
	}
	b.WriteString("\n" + RelationshipsComment + "\n")
	for _, entry := range s.relationshipEntries {
		b.WriteString(entry + "\n")
	}
	return b.String()
}

// Compiler turns GraphData values into Cypher scripts
type Compiler struct {
	logger *logrus.Logger
}

// NewCompiler creates a compiler that reports skipped relationships to logger.
// A nil logger gets a JSON-formatted default.
func NewCompiler(logger *logrus.Logger) *Compiler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Compiler{logger: logger}
}

var defaultCompiler = NewCompiler(nil)

// Generate compiles g with the default compiler and returns the script text.
func Generate(g *graph.GraphData) string {
	return defaultCompiler.Compile(g).String()
}

// Compile emits one MERGE per node followed by a MATCH/MERGE pair per
// resolvable relationship. The node's id is folded into its merge
// properties so reruns match existing nodes instead of duplicating them.
func (c *Compiler) Compile(g *graph.GraphData) *Script {
	script := &Script{}
	if g == nil {
		return script
	}

	for _, node := range g.Nodes {
		script.NodeStatements = append(script.NodeStatements, nodeStatement(node))
	}

	index := graph.NewNodeIndex(g.Nodes)
	for i, rel := range g.Relationships {
		source, sourceFound := index.Lookup(rel.Source)
		target, targetFound := index.Lookup(rel.Target)

		if !sourceFound || !targetFound {
			warning := Warning{Index: i, Source: rel.Source, Target: rel.Target, Type: rel.Type}
			if !sourceFound {
				warning.Missing = append(warning.Missing, rel.Source)
			}
			if !targetFound && rel.Target != rel.Source {
				warning.Missing = append(warning.Missing, rel.Target)
			}
			c.logger.WithFields(logrus.Fields{
				"source":  rel.Source,
				"target":  rel.Target,
				"type":    rel.Type,
				"missing": warning.Missing,
			}).Warn("Skipping relationship due to missing node")

			script.Warnings = append(script.Warnings, warning)
			script.relationshipEntries = append(script.relationshipEntries, warning.String())
			continue
		}

		stmt := relationshipStatement(source, target, rel)
		script.RelationshipStatements = append(script.RelationshipStatements, stmt)
		script.relationshipEntries = append(script.relationshipEntries, stmt)
	}

	metrics.CompiledStatements.WithLabelValues("node").Add(float64(len(script.NodeStatements)))
	metrics.CompiledStatements.WithLabelValues("relationship").Add(float64(len(script.RelationshipStatements)))
	metrics.CompiledStatements.WithLabelValues("warning").Add(float64(len(script.Warnings)))

	return script
}

func nodeStatement(node graph.Node) string {
	props := orderedmap.New[string, interface{}]()
	if node.Properties != nil {
		for pair := node.Properties.Oldest(); pair != nil; pair = pair.Next() {
			props.Set(pair.Key, pair.Value)
		}
	}
	props.Set("id", node.ID)

	return fmt.Sprintf("MERGE (%s %s)", nodePattern("n", node.Label), FormatProperties(props))
}

func relationshipStatement(source, target *graph.Node, rel graph.Relationship) string {
	match := fmt.Sprintf("MATCH (%s %s), (%s %s)",
		nodePattern("a", source.Label), idProperties(source.ID),
		nodePattern("b", target.Label), idProperties(target.ID),
	)

	merge := fmt.Sprintf("MERGE (a)-[r:%s]->(b)", QuoteIdentifier(rel.Type))
	if relProps := FormatProperties(rel.Properties); relProps != "" {
		merge += " ON CREATE SET r += " + relProps
	}
	return match + "\n" + merge
}

func nodePattern(variable, label string) string {
	if label == "" {
		return variable
	}
	return variable + ":" + QuoteIdentifier(label)
}

func idProperties(id string) string {
	return FormatProperties(graph.NewProperties("id", id))
}
