package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGraph(t *testing.T) {
	RecordGraph(map[string]int{"Component": 3, "Material": 1}, map[string]int{"MADE_OF": 2})
	assert.Equal(t, float64(3), testutil.ToFloat64(GraphNodeCount.WithLabelValues("Component")))
	assert.Equal(t, float64(2), testutil.ToFloat64(GraphEdgeCount.WithLabelValues("MADE_OF")))

	// a later graph replaces, rather than adds to, the previous counts
	RecordGraph(map[string]int{"Person": 1}, nil)
	assert.Equal(t, 1, testutil.CollectAndCount(GraphNodeCount))
	assert.Equal(t, 0, testutil.CollectAndCount(GraphEdgeCount))
}
