// Package kmeans partitions entities of one type by the entities they are related to.
//
// Each target entity becomes a 0/1 incidence vector over the sorted set of entities it
// touches through any relation; the vectors are clustered with Lloyd's algorithm for a fixed
// number of iterations. There is no convergence check.
package kmeans

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-analytics-service/pkg/distance"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// ClusterKey is the Node.Clusters key written by this package
const ClusterKey = "kmeans"

// DefaultIterations is the fixed Lloyd iteration budget
const DefaultIterations = 10

// Options configures one run. K must be at least 1.
type Options struct {
	TargetType string
	K          int
	Iterations int // 0 means DefaultIterations
}

// Result holds the partition
type Result struct {
	Assignments map[string]int `json:"result"`
	Nodes       []models.Node  `json:"nodes"`
	Features    []string       `json:"features"`
	Centroids   [][]float64    `json:"centroids"`
}

// Vectorize returns target entity names (deduplicated, input order), the sorted feature
// vocabulary and one incidence vector per target
func Vectorize(entities []models.Entity, relations []models.Relation, targetType string) ([]string, []string, [][]float64) {
	var targets []string
	isTarget := make(map[string]bool)
	for _, e := range entities {
		if e.Type == targetType && !isTarget[e.Name] {
			isTarget[e.Name] = true
			targets = append(targets, e.Name)
		}
	}
	if len(targets) == 0 {
		return nil, nil, nil
	}

	incidence := make(map[string]map[string]bool, len(targets))
	featureSet := make(map[string]bool)
	record := func(item, feature string) {
		if incidence[item] == nil {
			incidence[item] = make(map[string]bool)
		}
		incidence[item][feature] = true
		featureSet[feature] = true
	}

	for _, r := range relations {
		if isTarget[r.Source] {
			record(r.Source, r.Target)
		}
		if isTarget[r.Target] {
			record(r.Target, r.Source)
		}
	}

	features := make([]string, 0, len(featureSet))
	for f := range featureSet {
		features = append(features, f)
	}
	sort.Strings(features)

	position := make(map[string]int, len(features))
	for i, f := range features {
		position[f] = i
	}

	vectors := make([][]float64, len(targets))
	for i, name := range targets {
		vec := make([]float64, len(features))
		for f := range incidence[name] {
			vec[position[f]] = 1
		}
		vectors[i] = vec
	}

	return targets, features, vectors
}

// Cluster vectorizes the target entities and runs fixed-iteration k-means.
// With fewer items than K, every item seeds its own centroid.
func Cluster(entities []models.Entity, relations []models.Relation, opts Options) Result {
	result := Result{
		Assignments: make(map[string]int),
		Nodes:       []models.Node{},
	}

	names, features, vectors := Vectorize(entities, relations, opts.TargetType)
	if len(names) == 0 {
		return result
	}
	result.Features = features

	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	assignments, centroids := Lloyd(vectors, opts.K, iterations)
	result.Centroids = centroids

	for i, name := range names {
		cluster := assignments[i]
		result.Assignments[name] = cluster
		result.Nodes = append(result.Nodes, models.Node{
			ID:       name,
			Group:    strconv.Itoa(cluster),
			Clusters: map[string]int{ClusterKey: cluster},
		})
	}

	return result
}

// Lloyd runs exactly iterations rounds of assign/update over vectors, seeding centroids with
// the first min(k, len(vectors)) vectors. Ties go to the lowest centroid index and a centroid
// with no members keeps its position.
func Lloyd(vectors [][]float64, k, iterations int) ([]int, [][]float64) {
	if len(vectors) == 0 {
		return nil, nil
	}
	if k < 1 {
		k = 1
	}
	if k > len(vectors) {
		k = len(vectors)
	}

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float64(nil), vectors[c]...)
	}
	assignments := make([]int, len(vectors))

	dim := len(vectors[0])
	for iter := 0; iter < iterations; iter++ {
		for i, vec := range vectors {
			best, bestD := 0, distance.Euclidean(vec, centroids[0])
			for c := 1; c < k; c++ {
				if d := distance.Euclidean(vec, centroids[c]); d < bestD {
					best, bestD = c, d
				}
			}
			assignments[i] = best
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, vec := range vectors {
			floats.Add(sums[assignments[i]], vec)
			counts[assignments[i]]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	return assignments, centroids
}
