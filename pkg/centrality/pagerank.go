package centrality

import (
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

const (
	pageRankDamping   = 0.85
	pageRankTolerance = 1e-6
)

// PageRank scores nodes with gonum's PageRank over the undirected graph, every link
// walked in both directions. Link weights are ignored.
func PageRank(nodes []models.Node, links []models.Link) map[string]float64 {
	scores := make(map[string]float64, len(nodes))
	undirected, mapping := graph.ToGonum(graph.IDs(nodes), links)
	if undirected.Nodes().Len() == 0 {
		return scores
	}

	directed := simple.NewDirectedGraph()
	it := undirected.Nodes()
	for it.Next() {
		directed.AddNode(it.Node())
	}
	edges := undirected.Edges()
	for edges.Next() {
		e := edges.Edge()
		directed.SetEdge(simple.Edge{F: e.From(), T: e.To()})
		directed.SetEdge(simple.Edge{F: e.To(), T: e.From()})
	}

	for gid, score := range network.PageRank(directed, pageRankDamping, pageRankTolerance) {
		scores[mapping.FromGonum[gid]] = score
	}
	return scores
}
