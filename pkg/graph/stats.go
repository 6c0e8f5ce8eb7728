package graph

import (
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Stats summarises the shape of a derived graph
type Stats struct {
	NodeCount           int     `json:"nodeCount"`
	EdgeCount           int     `json:"edgeCount"`
	TotalWeight         float64 `json:"totalWeight"`
	AvgDegree           float64 `json:"avgDegree"`
	MaxDegree           int     `json:"maxDegree"`
	Isolated            int     `json:"isolated"`
	ConnectedComponents int     `json:"connectedComponents"`
	LargestComponent    int     `json:"largestComponent"`
}

// ComputeStats counts distinct undirected edges; self loops and unknown endpoints are ignored
func ComputeStats(g models.Graph) Stats {
	wg, mapping := ToGonum(IDs(g.Nodes), g.Links)

	stats := Stats{NodeCount: len(mapping.ToGonum)}
	if stats.NodeCount == 0 {
		return stats
	}

	for _, e := range gonumgraph.WeightedEdgesOf(wg.WeightedEdges()) {
		stats.EdgeCount++
		stats.TotalWeight += e.Weight()
	}

	nodes := wg.Nodes()
	for nodes.Next() {
		degree := len(gonumgraph.NodesOf(wg.From(nodes.Node().ID())))
		if degree > stats.MaxDegree {
			stats.MaxDegree = degree
		}
		if degree == 0 {
			stats.Isolated++
		}
	}
	stats.AvgDegree = 2 * float64(stats.EdgeCount) / float64(stats.NodeCount)

	components := topo.ConnectedComponents(wg)
	stats.ConnectedComponents = len(components)
	for _, c := range components {
		if len(c) > stats.LargestComponent {
			stats.LargestComponent = len(c)
		}
	}

	return stats
}
