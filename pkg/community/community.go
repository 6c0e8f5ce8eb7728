// Package community labels the nodes of a two-type subgraph by label propagation.
//
// Label propagation is a local-consensus heuristic, not a modularity optimiser. Traversal
// order is shuffled every pass by a seeded source, so a fixed seed reproduces a run exactly.
package community

import (
	"math/rand"
	"strconv"

	gonumgraph "gonum.org/v1/gonum/graph"
	gonumcommunity "gonum.org/v1/gonum/graph/community"

	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// DefaultMaxPasses bounds the number of propagation passes
const DefaultMaxPasses = 20

// DefaultSeed is used when Options.Seed is zero
const DefaultSeed int64 = 42

// LinkType is the Type of links whose relation label is empty
const LinkType = "relation"

// Options configures one detection run
type Options struct {
	FrontType string
	BackType  string
	MaxPasses int   // 0 means DefaultMaxPasses
	Seed      int64 // 0 means DefaultSeed
}

// Result is the labelled subgraph
type Result struct {
	Nodes       []models.Node `json:"nodes"`
	Links       []models.Link `json:"links"`
	Communities int           `json:"communities"`
	Modularity  float64       `json:"modularity"`
	Passes      int           `json:"passes"`
}

// state is the mutable label table of a single detection call
type state struct {
	labels    []int
	neighbors [][]int
	rng       *rand.Rand
}

// Subgraph returns the nodes of exactly the two types (deduplicated, input order) and the
// relations joining two of them, self loops excluded
func Subgraph(entities []models.Entity, relations []models.Relation, frontType, backType string) ([]models.Node, []models.Link) {
	nodes := []models.Node{}
	inSet := make(map[string]bool)
	for _, e := range entities {
		if (e.Type == frontType || e.Type == backType) && !inSet[e.Name] {
			inSet[e.Name] = true
			nodes = append(nodes, models.Node{ID: e.Name, Group: e.Type})
		}
	}

	links := []models.Link{}
	for _, r := range relations {
		if r.Source == r.Target || !inSet[r.Source] || !inSet[r.Target] {
			continue
		}
		linkType := r.Relation
		if linkType == "" {
			linkType = LinkType
		}
		links = append(links, models.Link{Source: r.Source, Target: r.Target, Type: linkType})
	}

	return nodes, links
}

// Detect runs label propagation over the front/back induced subgraph and annotates every node
// with a dense community id
func Detect(entities []models.Entity, relations []models.Relation, opts Options) Result {
	nodes, links := Subgraph(entities, relations, opts.FrontType, opts.BackType)
	result := Result{Nodes: nodes, Links: links}
	if len(nodes) == 0 {
		return result
	}

	idx := graph.BuildIndex(graph.IDs(nodes), links, false)

	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}

	s := &state{
		labels:    make([]int, len(nodes)),
		neighbors: idx.DenseNeighbors(),
		rng:       rand.New(rand.NewSource(seed)),
	}
	for i := range s.labels {
		s.labels[i] = i
	}

	for pass := 0; pass < maxPasses; pass++ {
		result.Passes++
		if !s.propagate() {
			break
		}
	}

	dense := s.remap()
	for i := range result.Nodes {
		result.Nodes[i].Metrics = &models.Metrics{Community: models.Int(dense[i])}
		result.Nodes[i].Group = strconv.Itoa(dense[i])
	}
	result.Communities = countDistinct(dense)
	result.Modularity = modularity(result.Nodes, links, dense)

	return result
}

// propagate performs one pass in shuffled order and reports whether any label changed
func (s *state) propagate() bool {
	order := s.rng.Perm(len(s.labels))
	changed := false

	for _, node := range order {
		neighbors := s.neighbors[node]
		if len(neighbors) == 0 {
			continue
		}

		counts := make(map[int]int, len(neighbors))
		seen := make([]int, 0, len(neighbors))
		for _, nb := range neighbors {
			label := s.labels[nb]
			if counts[label] == 0 {
				seen = append(seen, label)
			}
			counts[label]++
		}

		// ties go to the label encountered first
		best, bestCount := s.labels[node], 0
		for _, label := range seen {
			if counts[label] > bestCount {
				best, bestCount = label, counts[label]
			}
		}

		if best != s.labels[node] {
			s.labels[node] = best
			changed = true
		}
	}

	return changed
}

// remap numbers surviving labels 0..m-1 in order of first appearance over the node list
func (s *state) remap() []int {
	ids := make(map[int]int)
	dense := make([]int, len(s.labels))
	for i, label := range s.labels {
		id, ok := ids[label]
		if !ok {
			id = len(ids)
			ids[label] = id
		}
		dense[i] = id
	}
	return dense
}

func countDistinct(values []int) int {
	seen := make(map[int]bool)
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

// modularity scores the partition with gonum's Q at resolution 1
func modularity(nodes []models.Node, links []models.Link, dense []int) float64 {
	if len(links) == 0 {
		return 0
	}
	g, mapping := graph.ToGonum(graph.IDs(nodes), links)

	groups := make([][]gonumgraph.Node, countDistinct(dense))
	for i, n := range nodes {
		groups[dense[i]] = append(groups[dense[i]], g.Node(mapping.ToGonum[n.ID]))
	}

	return gonumcommunity.Q(g, groups, 1)
}
