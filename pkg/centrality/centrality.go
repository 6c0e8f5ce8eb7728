// Package centrality ranks the nodes of an unweighted, undirected graph by degree,
// betweenness (Brandes) and closeness, and annotates nodes with structural metrics.
package centrality

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Options configures one run
type Options struct {
	// Workers bounds the concurrent shortest-path chunks; 0 means runtime.NumCPU().
	// The chunk layout depends on Workers, never on scheduling.
	Workers int
}

// Result holds the full ranking lists, each sorted descending by value
type Result struct {
	Degree      []models.Rank `json:"degree"`
	Betweenness []models.Rank `json:"betweenness"`
	Closeness   []models.Rank `json:"closeness"`
	PageRank    []models.Rank `json:"pagerank"`
}

// Scores are raw per-node values aligned with Order
type Scores struct {
	Order       []string
	Degree      []float64
	Betweenness []float64
	Closeness   []float64
}

// Compute builds the unweighted index over nodes/links and ranks every node
func Compute(ctx context.Context, nodes []models.Node, links []models.Link, opts Options) (Result, error) {
	scores, err := ComputeScores(ctx, nodes, links, opts)
	if err != nil {
		return Result{}, err
	}
	return rankAll(scores, PageRank(nodes, links)), nil
}

func rankAll(scores Scores, pagerank map[string]float64) Result {
	pr := make([]float64, len(scores.Order))
	for i, id := range scores.Order {
		pr[i] = pagerank[id]
	}

	return Result{
		Degree:      Rank(scores.Order, scores.Degree),
		Betweenness: Rank(scores.Order, scores.Betweenness),
		Closeness:   Rank(scores.Order, scores.Closeness),
		PageRank:    Rank(scores.Order, pr),
	}
}

// ComputeScores returns unsorted degree, betweenness and closeness per node
func ComputeScores(ctx context.Context, nodes []models.Node, links []models.Link, opts Options) (Scores, error) {
	idx := graph.BuildIndex(graph.IDs(nodes), links, false)
	adjacency := idx.DenseNeighbors()
	n := len(adjacency)

	scores := Scores{
		Order:       idx.Order(),
		Degree:      make([]float64, n),
		Betweenness: make([]float64, n),
		Closeness:   make([]float64, n),
	}
	for i, neighbors := range adjacency {
		scores.Degree[i] = float64(len(neighbors))
	}
	if n == 0 {
		return scores, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	// each chunk owns a contiguous source range and its own accumulator
	chunkSize := (n + workers - 1) / workers
	partials := make([][]float64, workers)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < workers; c++ {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		c := c
		g.Go(func() error {
			acc := make([]float64, n)
			sp := newShortestPaths(n)
			for s := start; s < end; s++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				sp.bfs(adjacency, s)
				sp.accumulate(s, acc)
				scores.Closeness[s] = sp.closeness()
			}
			partials[c] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Scores{}, err
	}

	for _, acc := range partials {
		for v, val := range acc {
			scores.Betweenness[v] += val
		}
	}
	// undirected: every pair was counted from both ends
	for v := range scores.Betweenness {
		scores.Betweenness[v] /= 2
	}

	return scores, nil
}

// Rank pairs ids with values and sorts descending by value; ties keep input order
func Rank(ids []string, values []float64) []models.Rank {
	ranks := make([]models.Rank, len(ids))
	for i, id := range ids {
		ranks[i] = models.Rank{ID: id, Val: values[i]}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Val > ranks[j].Val
	})
	return ranks
}

// Top returns at most n leading entries of ranks
func Top(ranks []models.Rank, n int) []models.Rank {
	if n < 0 || n >= len(ranks) {
		return ranks
	}
	return ranks[:n]
}
