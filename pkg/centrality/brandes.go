package centrality

// shortestPaths is the per-source working set of Brandes' algorithm, reused across sources
type shortestPaths struct {
	stack []int
	pred  [][]int
	sigma []float64
	dist  []int
	delta []float64
	queue []int
}

func newShortestPaths(n int) *shortestPaths {
	return &shortestPaths{
		stack: make([]int, 0, n),
		pred:  make([][]int, n),
		sigma: make([]float64, n),
		dist:  make([]int, n),
		delta: make([]float64, n),
		queue: make([]int, 0, n),
	}
}

// bfs counts shortest paths from s and records predecessors and visit order
func (sp *shortestPaths) bfs(adjacency [][]int, s int) {
	sp.stack = sp.stack[:0]
	sp.queue = sp.queue[:0]
	for v := range sp.dist {
		sp.dist[v] = -1
		sp.sigma[v] = 0
		sp.delta[v] = 0
		sp.pred[v] = sp.pred[v][:0]
	}

	sp.dist[s] = 0
	sp.sigma[s] = 1
	sp.queue = append(sp.queue, s)

	for head := 0; head < len(sp.queue); head++ {
		v := sp.queue[head]
		sp.stack = append(sp.stack, v)

		for _, w := range adjacency[v] {
			if sp.dist[w] < 0 {
				sp.dist[w] = sp.dist[v] + 1
				sp.queue = append(sp.queue, w)
			}
			if sp.dist[w] == sp.dist[v]+1 {
				sp.sigma[w] += sp.sigma[v]
				sp.pred[w] = append(sp.pred[w], v)
			}
		}
	}
}

// accumulate back-propagates dependencies in reverse BFS order into cb, skipping s itself
func (sp *shortestPaths) accumulate(s int, cb []float64) {
	for i := len(sp.stack) - 1; i >= 0; i-- {
		w := sp.stack[i]
		for _, v := range sp.pred[w] {
			sp.delta[v] += (sp.sigma[v] / sp.sigma[w]) * (1 + sp.delta[w])
		}
		if w != s {
			cb[w] += sp.delta[w]
		}
	}
}

// closeness of the last bfs source: reachable / Σ distance, 0 when nothing is reachable
func (sp *shortestPaths) closeness() float64 {
	reachable, total := 0, 0
	for _, d := range sp.dist {
		if d > 0 {
			reachable++
			total += d
		}
	}
	if total == 0 {
		return 0
	}
	return float64(reachable) / float64(total)
}
