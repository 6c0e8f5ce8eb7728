package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

func TestComputeStats(t *testing.T) {
	g := models.Graph{
		Nodes: []models.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "x"}, {ID: "y"}, {ID: "lonely"}},
		Links: []models.Link{
			{Source: "a", Target: "b", Weight: models.Float(2)},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "a"},
			{Source: "x", Target: "y", Weight: models.Float(3)},
			{Source: "x", Target: "x"},
			{Source: "y", Target: "ghost"},
		},
	}

	stats := ComputeStats(g)
	assert.Equal(t, 6, stats.NodeCount)
	assert.Equal(t, 4, stats.EdgeCount)
	assert.InDelta(t, 7.0, stats.TotalWeight, 1e-9)
	assert.InDelta(t, 8.0/6.0, stats.AvgDegree, 1e-9)
	assert.Equal(t, 2, stats.MaxDegree)
	assert.Equal(t, 1, stats.Isolated)
	assert.Equal(t, 3, stats.ConnectedComponents)
	assert.Equal(t, 3, stats.LargestComponent)
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(models.Graph{}))
}
