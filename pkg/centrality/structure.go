package centrality

import (
	"context"

	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// simpleNeighbors drops self loops and repeated neighbours from a dense adjacency
func simpleNeighbors(adjacency [][]int) []map[int]bool {
	sets := make([]map[int]bool, len(adjacency))
	for v, neighbors := range adjacency {
		sets[v] = make(map[int]bool, len(neighbors))
		for _, w := range neighbors {
			if w != v {
				sets[v][w] = true
			}
		}
	}
	return sets
}

// CoreNumbers returns the k-core number of every node by repeated minimum-degree peeling
func CoreNumbers(adjacency [][]int) []int {
	sets := simpleNeighbors(adjacency)
	n := len(sets)
	degree := make([]int, n)
	for v := range sets {
		degree[v] = len(sets[v])
	}

	core := make([]int, n)
	removed := make([]bool, n)
	k := 0
	for done := 0; done < n; done++ {
		v := -1
		for u := 0; u < n; u++ {
			if !removed[u] && (v < 0 || degree[u] < degree[v]) {
				v = u
			}
		}
		if degree[v] > k {
			k = degree[v]
		}
		core[v] = k
		removed[v] = true
		for w := range sets[v] {
			if !removed[w] {
				degree[w]--
			}
		}
	}
	return core
}

// ClusteringCoefficients returns the local clustering coefficient of every node;
// nodes with fewer than two neighbours score 0
func ClusteringCoefficients(adjacency [][]int) []float64 {
	sets := simpleNeighbors(adjacency)
	coefficients := make([]float64, len(sets))

	for v, neighbors := range sets {
		k := len(neighbors)
		if k < 2 {
			continue
		}
		list := make([]int, 0, k)
		for w := range neighbors {
			list = append(list, w)
		}
		triangles := 0
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				if sets[list[i]][list[j]] {
					triangles++
				}
			}
		}
		coefficients[v] = float64(triangles) / float64(k*(k-1)/2)
	}
	return coefficients
}

// Annotate computes every metric and returns copies of nodes with Metrics filled in,
// together with the rankings. Nodes with a duplicate id share the first one's metrics.
func Annotate(ctx context.Context, nodes []models.Node, links []models.Link, opts Options) ([]models.Node, Result, error) {
	scores, err := ComputeScores(ctx, nodes, links, opts)
	if err != nil {
		return nil, Result{}, err
	}
	pagerank := PageRank(nodes, links)

	idx := graph.BuildIndex(graph.IDs(nodes), links, false)
	adjacency := idx.DenseNeighbors()
	cores := CoreNumbers(adjacency)
	coefficients := ClusteringCoefficients(adjacency)

	annotated := make([]models.Node, len(nodes))
	for i, node := range nodes {
		pos, _ := idx.Position(node.ID)
		metrics := models.Metrics{}
		if node.Metrics != nil {
			metrics = *node.Metrics
		}
		metrics.Degree = models.Float(scores.Degree[pos])
		metrics.Betweenness = models.Float(scores.Betweenness[pos])
		metrics.Closeness = models.Float(scores.Closeness[pos])
		metrics.PageRank = models.Float(pagerank[node.ID])
		metrics.KCore = models.Int(cores[pos])
		metrics.ClusteringCoefficient = models.Float(coefficients[pos])

		node.Metrics = &metrics
		annotated[i] = node
	}

	return annotated, rankAll(scores, pagerank), nil
}
