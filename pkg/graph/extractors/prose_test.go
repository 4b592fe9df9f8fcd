package extractors

import (
	"context"
	"testing"

	"github.com/athapong/docgraph/pkg/graph"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProseExtractor(t *testing.T) {
	extractor := NewProseExtractor(nil)

	extraction, err := extractor.Extract(context.Background(), []graph.Part{
		graph.TextPart("bom.txt", "The housing is made of aluminum. The relay uses a 12V coil. The relay uses a 12V coil."),
		graph.BlobPart("photo.jpg", "image/jpeg", []byte{0xff, 0xd8}),
	})
	require.NoError(t, err)
	require.Equal(t, graph.OutcomePopulated, extraction.Outcome)

	g := extraction.Graph
	ids := map[string]string{}
	for _, node := range g.Nodes {
		ids[node.ID] = node.Label
	}
	assert.Equal(t, LabelComponent, ids["housing"])
	assert.Equal(t, LabelMaterial, ids["aluminum"])
	assert.Equal(t, LabelComponent, ids["relay"])
	assert.Equal(t, LabelSpecification, ids["12v"])

	rels := map[string]graph.Relationship{}
	for _, rel := range g.Relationships {
		rels[rel.Source+"->"+rel.Target] = rel
	}
	require.Contains(t, rels, "housing->aluminum")
	assert.Equal(t, "MADE_OF", rels["housing->aluminum"].Type)
	require.Contains(t, rels, "relay->12v")
	assert.Equal(t, "USES", rels["relay->12v"].Type)

	sentences, ok := rels["relay->12v"].Properties.Get("sentences")
	require.True(t, ok)
	assert.Equal(t, 2, sentences)

	// every relationship resolves against the extracted nodes
	assert.Empty(t, g.Validate())
	assert.Equal(t, []string{LabelComponent, LabelMaterial, LabelSpecification}, DistinctLabels(g))
}

func TestProseExtractor_NothingFound(t *testing.T) {
	extraction, err := NewProseExtractor(nil).Extract(context.Background(), []graph.Part{
		graph.TextPart("note.txt", "nothing of interest here."),
	})
	require.NoError(t, err)
	assert.Equal(t, graph.OutcomeEmpty, extraction.Outcome)
}

func TestProseExtractor_NoText(t *testing.T) {
	_, err := NewProseExtractor(nil).Extract(context.Background(), []graph.Part{
		graph.BlobPart("photo.jpg", "image/jpeg", []byte{0xff, 0xd8}),
	})
	assert.True(t, errors.Is(err, graph.ErrNoParts))
}

func TestRelationType(t *testing.T) {
	assert.Equal(t, "CONTAINS", relationType(" assembly contains the "))
	assert.Equal(t, "MANUFACTURED_BY", relationType(" is manufactured by "))
	assert.Equal(t, RelationCoOccurs, relationType(" and "))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "stainless_steel", Slug("Stainless Steel"))
	assert.Equal(t, "crc_1206_10k", Slug("CRC-1206-10K"))
	assert.Equal(t, "", Slug("--"))
}
