// Package graph builds the adjacency views every analytics algorithm runs on.
package graph

import (
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Neighbor is one adjacency entry
type Neighbor struct {
	ID     string
	Weight float64
}

// Index is an undirected adjacency view over a fixed node set
type Index struct {
	order     []string
	position  map[string]int
	adjacency map[string][]Neighbor
}

// BuildIndex maps every node id to its neighbours. Each link contributes both directions.
// With weighted set the link weight (default 1) is kept, otherwise every entry weighs 1.
// Links touching an id outside nodeIDs are dropped; self loops are kept.
func BuildIndex(nodeIDs []string, links []models.Link, weighted bool) *Index {
	idx := &Index{
		order:     make([]string, 0, len(nodeIDs)),
		position:  make(map[string]int, len(nodeIDs)),
		adjacency: make(map[string][]Neighbor, len(nodeIDs)),
	}

	for _, id := range nodeIDs {
		if _, exists := idx.position[id]; exists {
			continue
		}
		idx.position[id] = len(idx.order)
		idx.order = append(idx.order, id)
		idx.adjacency[id] = []Neighbor{}
	}

	for _, link := range links {
		if _, ok := idx.position[link.Source]; !ok {
			continue
		}
		if _, ok := idx.position[link.Target]; !ok {
			continue
		}

		weight := 1.0
		if weighted {
			weight = link.LinkWeight()
		}

		idx.adjacency[link.Source] = append(idx.adjacency[link.Source], Neighbor{ID: link.Target, Weight: weight})
		idx.adjacency[link.Target] = append(idx.adjacency[link.Target], Neighbor{ID: link.Source, Weight: weight})
	}

	return idx
}

// Order returns node ids in first-seen input order
func (idx *Index) Order() []string {
	return idx.order
}

// Len returns the number of distinct nodes
func (idx *Index) Len() int {
	return len(idx.order)
}

// Position returns the dense index of id in Order
func (idx *Index) Position(id string) (int, bool) {
	pos, ok := idx.position[id]
	return pos, ok
}

// Neighbors returns the adjacency list of id (nil for unknown ids)
func (idx *Index) Neighbors(id string) []Neighbor {
	return idx.adjacency[id]
}

// Has reports whether id belongs to the node set
func (idx *Index) Has(id string) bool {
	_, ok := idx.position[id]
	return ok
}

// DenseNeighbors returns adjacency as position lists, aligned with Order
func (idx *Index) DenseNeighbors() [][]int {
	dense := make([][]int, len(idx.order))
	for i, id := range idx.order {
		neighbors := idx.adjacency[id]
		dense[i] = make([]int, len(neighbors))
		for j, nb := range neighbors {
			dense[i][j] = idx.position[nb.ID]
		}
	}
	return dense
}

// IDs returns the ids of nodes in order
func IDs(nodes []models.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
