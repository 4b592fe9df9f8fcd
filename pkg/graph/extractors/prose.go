package extractors

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/athapong/docgraph/pkg/graph"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	LabelComponent     = "Component"
	LabelMaterial      = "Material"
	LabelPartNumber    = "PartNumber"
	LabelSpecification = "Specification"
	LabelPerson        = "Person"
	LabelLocation      = "Location"

	RelationCoOccurs = "CO_OCCURS_WITH"
)

var entityPatterns = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)\b(resistor|capacitor|inductor|diode|transistor|connector|relay|fuse|sensor|switch|bearing|gear|bolt|screw|gasket|valve|motor|housing|spring)s?\b`), LabelComponent},
	{regexp.MustCompile(`(?i)\b(stainless steel|steel|aluminium|aluminum|copper|brass|nylon|polycarbonate|ceramic|silicone|titanium|fr-4)\b`), LabelMaterial},
	{regexp.MustCompile(`\b[A-Z]{2,}-?[0-9]{2,}[A-Z0-9-]*\b`), LabelPartNumber},
	{regexp.MustCompile(`\b[0-9]+(?:\.[0-9]+)?\s?(?:kΩ|MΩ|Ω|ohms?|µF|uF|nF|pF|mA|mV|kV|V|W|mm|cm|kg|°C)`), LabelSpecification},
}

var nerLabels = map[string]string{
	"PERSON": LabelPerson,
	"GPE":    LabelLocation,
}

// verbs between two mentions that name the relationship
var relationVerbs = map[string]string{
	"uses":         "USES",
	"contains":     "CONTAINS",
	"includes":     "CONTAINS",
	"requires":     "REQUIRES",
	"connects":     "CONNECTED_TO",
	"made":         "MADE_OF",
	"manufactured": "MANUFACTURED_BY",
	"rated":        "HAS_SPECIFICATION",
	"has":          "HAS_SPECIFICATION",
	"replaces":     "REPLACES",
	"mounts":       "MOUNTED_ON",
	"part":         "PART_OF",
}

var nonIdentifier = regexp.MustCompile(`[^a-z0-9]+`)

// ProseExtractor builds a graph from text parts without any network call,
// using named entity recognition and a small set of part-document patterns.
// Mentions that share a sentence are linked.
type ProseExtractor struct {
	logger *logrus.Logger
}

// NewProseExtractor creates the offline extractor.
func NewProseExtractor(logger *logrus.Logger) *ProseExtractor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &ProseExtractor{logger: logger}
}

type mention struct {
	id    string
	text  string
	label string
	pos   int
}

type proseGraph struct {
	nodes     []graph.Node
	nodeIndex map[string]int
	rels      []graph.Relationship
	relIndex  map[string]int
}

// Extract implements graph.Extractor. Image parts are ignored.
func (e *ProseExtractor) Extract(ctx context.Context, parts []graph.Part) (*graph.Extraction, error) {
	texts, _ := graph.SplitParts(parts)
	if len(texts) == 0 {
		return nil, errors.WithStack(graph.ErrNoParts)
	}

	pg := &proseGraph{nodeIndex: make(map[string]int), relIndex: make(map[string]int)}
	for _, part := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := prose.NewDocument(part.Text)
		if err != nil {
			e.logger.WithError(err).WithField("part", part.Name).Error("Failed to create prose document")
			return nil, errors.Wrap(err, "prose document")
		}

		named := make([]prose.Entity, 0)
		for _, ent := range doc.Entities() {
			if _, ok := nerLabels[ent.Label]; ok {
				named = append(named, ent)
			}
		}

		for _, sent := range doc.Sentences() {
			mentions := findMentions(sent.Text, named)
			for _, m := range mentions {
				pg.addNode(m, part.Name)
			}
			for i := 0; i+1 < len(mentions); i++ {
				a, b := mentions[i], mentions[i+1]
				if a.id == b.id {
					continue
				}
				between := sent.Text[min(a.pos+len(a.text), b.pos):b.pos]
				pg.addRelationship(a.id, b.id, relationType(between))
			}
		}
	}

	g := &graph.GraphData{Nodes: pg.nodes, Relationships: pg.rels}
	if g.Nodes == nil {
		g.Nodes = []graph.Node{}
	}
	if g.Relationships == nil {
		g.Relationships = []graph.Relationship{}
	}

	e.logger.WithFields(logrus.Fields{
		"nodes":         len(g.Nodes),
		"relationships": len(g.Relationships),
	}).Info("NLP extraction finished")
	return graph.NewExtraction(g), nil
}

// findMentions returns entity mentions in a sentence ordered by position,
// keeping the longest match when spans overlap.
func findMentions(sentence string, named []prose.Entity) []mention {
	var found []mention
	for _, ent := range named {
		if pos := strings.Index(sentence, ent.Text); pos >= 0 {
			found = append(found, mention{text: ent.Text, label: nerLabels[ent.Label], pos: pos})
		}
	}
	for _, ep := range entityPatterns {
		for _, loc := range ep.pattern.FindAllStringIndex(sentence, -1) {
			found = append(found, mention{text: sentence[loc[0]:loc[1]], label: ep.label, pos: loc[0]})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].pos != found[j].pos {
			return found[i].pos < found[j].pos
		}
		return len(found[i].text) > len(found[j].text)
	})

	result := make([]mention, 0, len(found))
	end := -1
	for _, m := range found {
		if m.pos < end {
			continue
		}
		m.id = Slug(m.text)
		if m.id == "" {
			continue
		}
		result = append(result, m)
		end = m.pos + len(m.text)
	}
	return result
}

func relationType(between string) string {
	for _, word := range strings.FieldsFunc(strings.ToLower(between), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if relType, ok := relationVerbs[word]; ok {
			return relType
		}
	}
	return RelationCoOccurs
}

func (pg *proseGraph) addNode(m mention, source string) {
	if i, ok := pg.nodeIndex[m.id]; ok {
		mentions, _ := pg.nodes[i].Properties.Get("mentions")
		count, _ := mentions.(int)
		pg.nodes[i].Properties.Set("mentions", count+1)
		return
	}

	pg.nodeIndex[m.id] = len(pg.nodes)
	pg.nodes = append(pg.nodes, graph.Node{
		ID:         m.id,
		Label:      m.label,
		Properties: graph.NewProperties("name", m.text, "mentions", 1, "source", source),
	})
}

func (pg *proseGraph) addRelationship(source, target, relType string) {
	key := source + "\x00" + relType + "\x00" + target
	if i, ok := pg.relIndex[key]; ok {
		weight, _ := pg.rels[i].Properties.Get("sentences")
		count, _ := weight.(int)
		pg.rels[i].Properties.Set("sentences", count+1)
		return
	}

	pg.relIndex[key] = len(pg.rels)
	pg.rels = append(pg.rels, graph.Relationship{
		Source:     source,
		Target:     target,
		Type:       relType,
		Properties: graph.NewProperties("sentences", 1),
	})
}

// Slug converts a mention into a snake_case node id.
func Slug(text string) string {
	return strings.Trim(nonIdentifier.ReplaceAllString(strings.ToLower(text), "_"), "_")
}

// DistinctLabels lists the labels present in g, sorted.
func DistinctLabels(g *graph.GraphData) []string {
	labels := mapset.NewThreadUnsafeSet[string]()
	for _, node := range g.Nodes {
		labels.Add(node.Label)
	}
	sorted := labels.ToSlice()
	sort.Strings(sorted)
	return sorted
}
