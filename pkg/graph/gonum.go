package graph

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Mapping translates between node ids and gonum node ids
type Mapping struct {
	ToGonum   map[string]int64
	FromGonum map[int64]string
}

// ToGonum converts a node/link set into a gonum weighted undirected graph.
// Self loops are dropped and parallel links are summed; unknown endpoints are ignored.
func ToGonum(nodeIDs []string, links []models.Link) (*simple.WeightedUndirectedGraph, Mapping) {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	mapping := Mapping{
		ToGonum:   make(map[string]int64, len(nodeIDs)),
		FromGonum: make(map[int64]string, len(nodeIDs)),
	}

	for _, id := range nodeIDs {
		if _, exists := mapping.ToGonum[id]; exists {
			continue
		}
		gid := int64(len(mapping.ToGonum))
		g.AddNode(simple.Node(gid))
		mapping.ToGonum[id] = gid
		mapping.FromGonum[gid] = id
	}

	for _, link := range links {
		from, fromOK := mapping.ToGonum[link.Source]
		to, toOK := mapping.ToGonum[link.Target]
		if !fromOK || !toOK || from == to {
			continue
		}

		weight := link.LinkWeight()
		if existing := g.WeightedEdge(from, to); existing != nil {
			weight += existing.Weight()
		}
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: weight})
	}

	return g, mapping
}
