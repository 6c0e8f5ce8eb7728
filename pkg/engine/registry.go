package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/gilchrisn/graph-analytics-service/pkg/association"
	"github.com/gilchrisn/graph-analytics-service/pkg/centrality"
	"github.com/gilchrisn/graph-analytics-service/pkg/community"
	"github.com/gilchrisn/graph-analytics-service/pkg/hierarchical"
	"github.com/gilchrisn/graph-analytics-service/pkg/kmeans"
)

// Runner adapts one analytics package to the dispatch entry point
type Runner interface {
	// Name returns the algorithm identifier
	Name() Algorithm

	// ValidateParameters checks the documented preconditions of params
	ValidateParameters(params Params) error

	// Run executes the algorithm on req
	Run(ctx context.Context, req Request) (Result, error)
}

// Registry manages available algorithms
type Registry struct {
	runners map[Algorithm]Runner
}

// NewRegistry creates a registry holding all five algorithms
func NewRegistry(config *Config) *Registry {
	registry := &Registry{runners: make(map[Algorithm]Runner)}

	registry.Register(&hierarchicalRunner{})
	registry.Register(&kmeansRunner{config: config})
	registry.Register(&communityRunner{config: config})
	registry.Register(&associationRunner{})
	registry.Register(&centralityRunner{config: config})

	return registry
}

// Register adds or replaces a runner
func (r *Registry) Register(runner Runner) {
	r.runners[runner.Name()] = runner
}

// Get retrieves a runner by algorithm
func (r *Registry) Get(name Algorithm) (Runner, bool) {
	runner, exists := r.runners[name]
	return runner, exists
}

// List returns registered algorithms in dispatch order
func (r *Registry) List() []Algorithm {
	names := make([]Algorithm, 0, len(r.runners))
	for _, alg := range Algorithms() {
		if _, ok := r.runners[alg]; ok {
			names = append(names, alg)
		}
	}
	return names
}

// paramsAs asserts the normalized params record as T
func paramsAs[T Params](params Params) (T, error) {
	p, ok := Normalize(params).(T)
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrInvalidParameters, "expected %T, got %T", zero, params)
	}
	return p, nil
}

// ===== HIERARCHICAL =====

type hierarchicalRunner struct{}

func (h *hierarchicalRunner) Name() Algorithm { return AlgorithmHierarchical }

func (h *hierarchicalRunner) ValidateParameters(params Params) error {
	p, err := paramsAs[HierarchicalParams](params)
	if err != nil {
		return err
	}
	return ValidateStruct(p)
}

func (h *hierarchicalRunner) Run(ctx context.Context, req Request) (Result, error) {
	p, err := paramsAs[HierarchicalParams](req.Params)
	if err != nil {
		return nil, err
	}

	opts := hierarchical.DefaultOptions()
	if p.DistanceType != "" {
		opts.Distance = p.DistanceType
	}
	if p.Method != "" {
		opts.Method = p.Method
	}

	tree := hierarchical.Cluster(req.Graph.Nodes, req.Graph.Links, opts)
	return &HierarchicalResult{Tree: tree}, nil
}

// ===== KMEANS =====

type kmeansRunner struct {
	config *Config
}

func (k *kmeansRunner) Name() Algorithm { return AlgorithmKMeans }

func (k *kmeansRunner) ValidateParameters(params Params) error {
	p, err := paramsAs[KMeansParams](params)
	if err != nil {
		return err
	}
	return ValidateStruct(p)
}

func (k *kmeansRunner) Run(ctx context.Context, req Request) (Result, error) {
	p, err := paramsAs[KMeansParams](req.Params)
	if err != nil {
		return nil, err
	}

	result := kmeans.Cluster(req.Entities, req.Relations, kmeans.Options{
		TargetType: p.TargetType,
		K:          p.K,
		Iterations: k.config.KMeansIterations(),
	})
	return &KMeansResult{Result: result.Assignments, Nodes: result.Nodes, Features: result.Features}, nil
}

// ===== COMMUNITY =====

type communityRunner struct {
	config *Config
}

func (c *communityRunner) Name() Algorithm { return AlgorithmCommunity }

func (c *communityRunner) ValidateParameters(params Params) error {
	p, err := paramsAs[CommunityParams](params)
	if err != nil {
		return err
	}
	return ValidateStruct(p)
}

func (c *communityRunner) Run(ctx context.Context, req Request) (Result, error) {
	p, err := paramsAs[CommunityParams](req.Params)
	if err != nil {
		return nil, err
	}

	result := community.Detect(req.Entities, req.Relations, community.Options{
		FrontType: p.FrontType,
		BackType:  p.BackType,
		MaxPasses: c.config.CommunityMaxPasses(),
		Seed:      c.config.CommunitySeed(),
	})
	return &CommunityResult{
		Nodes:       result.Nodes,
		Links:       result.Links,
		Communities: result.Communities,
		Modularity:  result.Modularity,
	}, nil
}

// ===== ASSOCIATION =====

type associationRunner struct{}

func (a *associationRunner) Name() Algorithm { return AlgorithmAssociation }

func (a *associationRunner) ValidateParameters(params Params) error {
	p, err := paramsAs[AssociationParams](params)
	if err != nil {
		return err
	}
	return ValidateStruct(p)
}

func (a *associationRunner) Run(ctx context.Context, req Request) (Result, error) {
	p, err := paramsAs[AssociationParams](req.Params)
	if err != nil {
		return nil, err
	}

	result := association.Mine(req.Entities, req.Relations, association.Options{
		FrontType:     p.FrontType,
		BackType:      p.BackType,
		MinSupport:    p.MinSupport,
		MinConfidence: p.MinConfidence,
	})
	return &AssociationResult{Rules: result.Rules, Nodes: result.Nodes, Links: result.Links}, nil
}

// ===== CENTRALITY =====

type centralityRunner struct {
	config *Config
}

func (c *centralityRunner) Name() Algorithm { return AlgorithmCentrality }

func (c *centralityRunner) ValidateParameters(params Params) error {
	_, err := paramsAs[CentralityParams](params)
	return err
}

func (c *centralityRunner) Run(ctx context.Context, req Request) (Result, error) {
	nodes, rankings, err := centrality.Annotate(ctx, req.Graph.Nodes, req.Graph.Links, centrality.Options{
		Workers: c.config.CentralityWorkers(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "centrality")
	}

	return &CentralityResult{
		Degree:      rankings.Degree,
		Betweenness: rankings.Betweenness,
		Closeness:   rankings.Closeness,
		PageRank:    rankings.PageRank,
		Nodes:       nodes,
	}, nil
}
