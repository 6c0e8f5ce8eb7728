// Package hierarchical implements agglomerative clustering of a weighted graph's nodes
// into a binary dendrogram.
//
// Each node is represented by its weighted adjacency row. Clusters are merged pairwise by
// the configured linkage until one remains. Every pass recomputes all pair distances, so a
// run is O(n³); this is intended for graphs of a few hundred nodes.
package hierarchical

import (
	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-analytics-service/pkg/distance"
	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Linkage selects how the distance between two clusters is derived
type Linkage string

const (
	LinkageComplete Linkage = "complete" // max member-pair distance
	LinkageAverage  Linkage = "average"  // mean member-pair distance
	LinkageCentroid Linkage = "centroid" // distance between mean vectors
)

// Options configures one clustering run
type Options struct {
	Distance distance.Type
	Method   Linkage
}

// DefaultOptions returns euclidean/complete
func DefaultOptions() Options {
	return Options{Distance: distance.TypeEuclidean, Method: LinkageComplete}
}

type cluster struct {
	members  []int     // positions into the vector table
	centroid []float64 // mean of member vectors
	tree     *models.DendrogramNode
}

// Vectors builds one feature vector per node: its weighted adjacency row against all nodes,
// 0 where unconnected and on the diagonal. Parallel links are summed.
func Vectors(nodes []models.Node, links []models.Link) ([]string, [][]float64) {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	idx := graph.BuildIndex(ids, links, true)
	order := idx.Order()

	vectors := make([][]float64, len(order))
	for i, id := range order {
		row := make([]float64, len(order))
		for _, nb := range idx.Neighbors(id) {
			j, _ := idx.Position(nb.ID)
			if j == i {
				continue
			}
			row[j] += nb.Weight
		}
		vectors[i] = row
	}

	return order, vectors
}

// Cluster runs agglomerative clustering and returns the dendrogram root.
// An empty node set yields nil; a single node yields its leaf.
// Unknown distance types fall back to euclidean, unknown methods to complete.
func Cluster(nodes []models.Node, links []models.Link, opts Options) *models.DendrogramNode {
	ids, vectors := Vectors(nodes, links)
	if len(ids) == 0 {
		return nil
	}

	dist, ok := distance.ByType(opts.Distance)
	if !ok {
		dist = distance.Euclidean
	}

	clusters := make([]*cluster, len(ids))
	for i, id := range ids {
		clusters[i] = &cluster{
			members:  []int{i},
			centroid: append([]float64(nil), vectors[i]...),
			tree:     models.NewLeaf(id),
		}
	}

	for len(clusters) > 1 {
		bestI, bestJ := 0, 1
		minD := linkageDistance(clusters[0], clusters[1], vectors, dist, opts.Method)
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := linkageDistance(clusters[i], clusters[j], vectors, dist, opts.Method)
				if d < minD {
					minD = d
					bestI, bestJ = i, j
				}
			}
		}

		merged := merge(clusters[bestI], clusters[bestJ], vectors, minD)

		next := make([]*cluster, 0, len(clusters)-1)
		for k, c := range clusters {
			if k != bestI && k != bestJ {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
	}

	return clusters[0].tree
}

func merge(left, right *cluster, vectors [][]float64, d float64) *cluster {
	members := make([]int, 0, len(left.members)+len(right.members))
	members = append(members, left.members...)
	members = append(members, right.members...)

	// always the member mean, whatever the linkage
	centroid := make([]float64, len(vectors[members[0]]))
	for _, m := range members {
		floats.Add(centroid, vectors[m])
	}
	floats.Scale(1/float64(len(members)), centroid)

	return &cluster{
		members:  members,
		centroid: centroid,
		tree:     models.NewMerge(d, left.tree, right.tree),
	}
}

func linkageDistance(a, b *cluster, vectors [][]float64, dist distance.Func, method Linkage) float64 {
	switch method {
	case LinkageCentroid:
		return dist(a.centroid, b.centroid)
	case LinkageAverage:
		sum := 0.0
		for _, i := range a.members {
			for _, j := range b.members {
				sum += dist(vectors[i], vectors[j])
			}
		}
		return sum / float64(len(a.members)*len(b.members))
	default:
		maxD := 0.0
		for _, i := range a.members {
			for _, j := range b.members {
				if d := dist(vectors[i], vectors[j]); d > maxD {
					maxD = d
				}
			}
		}
		return maxD
	}
}

// Linkages lists the supported linkage methods
func Linkages() []Linkage {
	return []Linkage{LinkageComplete, LinkageAverage, LinkageCentroid}
}
