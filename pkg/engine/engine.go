// Package engine is the single dispatch entry point of the graph analytics algorithms.
//
// A Request carries a Params record whose concrete type selects the algorithm, the
// pre-built graph for HIERARCHICAL and CENTRALITY, and the raw entities/relations for the
// type-driven algorithms. Every run rebuilds its working state from the request.
package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-analytics-service/pkg/materialization"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

var (
	// ErrUnknownAlgorithm is returned for algorithm identifiers outside the five supported ones
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrInvalidParameters is returned when a parameter record violates its preconditions
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Request is one dispatch call
type Request struct {
	Params    Params
	Graph     models.Graph
	Entities  []models.Entity
	Relations []models.Relation
}

// Result is the typed outcome of one algorithm
type Result interface {
	Algorithm() Algorithm
}

// HierarchicalResult holds the dendrogram root; nil for an empty graph
type HierarchicalResult struct {
	Tree *models.DendrogramNode `json:"tree"`
}

// KMeansResult maps entity names to cluster indices
type KMeansResult struct {
	Result   map[string]int `json:"result"`
	Nodes    []models.Node  `json:"nodes"`
	Features []string       `json:"features,omitempty"`
}

// CommunityResult is the labelled two-type subgraph
type CommunityResult struct {
	Nodes       []models.Node `json:"nodes"`
	Links       []models.Link `json:"links"`
	Communities int           `json:"communities"`
	Modularity  float64       `json:"modularity"`
}

// AssociationResult holds rules sorted by lift plus the rule graph
type AssociationResult struct {
	Rules []models.AssociationRule `json:"rules"`
	Nodes []models.Node            `json:"nodes"`
	Links []models.Link            `json:"links"`
}

// CentralityResult holds full rankings, each sorted descending
type CentralityResult struct {
	Degree      []models.Rank `json:"degree"`
	Betweenness []models.Rank `json:"betweenness"`
	Closeness   []models.Rank `json:"closeness"`
	PageRank    []models.Rank `json:"pagerank"`
	Nodes       []models.Node `json:"nodes"`
}

func (*HierarchicalResult) Algorithm() Algorithm { return AlgorithmHierarchical }
func (*KMeansResult) Algorithm() Algorithm       { return AlgorithmKMeans }
func (*CommunityResult) Algorithm() Algorithm    { return AlgorithmCommunity }
func (*AssociationResult) Algorithm() Algorithm  { return AlgorithmAssociation }
func (*CentralityResult) Algorithm() Algorithm   { return AlgorithmCentrality }

// Engine dispatches requests to the registered algorithms
type Engine struct {
	config   *Config
	registry *Registry
	logger   zerolog.Logger
}

// New creates an engine; a nil config means NewConfig()
func New(config *Config) *Engine {
	if config == nil {
		config = NewConfig()
	}
	return &Engine{
		config:   config,
		registry: NewRegistry(config),
		logger:   config.CreateLogger(),
	}
}

// WithLogger replaces the engine logger
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	e.logger = logger
	return e
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Algorithms lists the algorithms the engine can dispatch
func (e *Engine) Algorithms() []Algorithm {
	return e.registry.List()
}

// Validate checks req.Params without running anything
func (e *Engine) Validate(req Request) (Runner, error) {
	if req.Params == nil {
		return nil, errors.Wrap(ErrInvalidParameters, "missing parameter record")
	}
	runner, ok := e.registry.Get(req.Params.Algorithm())
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q", req.Params.Algorithm())
	}
	if err := runner.ValidateParameters(req.Params); err != nil {
		return nil, err
	}
	return runner, nil
}

// Run validates and executes req
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	runner, err := e.Validate(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	e.logger.Debug().
		Str("algorithm", string(runner.Name())).
		Int("nodes", len(req.Graph.Nodes)).
		Int("links", len(req.Graph.Links)).
		Int("entities", len(req.Entities)).
		Int("relations", len(req.Relations)).
		Msg("Starting analysis")

	result, err := runner.Run(ctx, req)
	if err != nil {
		e.logger.Error().Err(err).Str("algorithm", string(runner.Name())).Msg("Analysis failed")
		return nil, errors.Wrapf(err, "%s", runner.Name())
	}

	e.logger.Info().
		Str("algorithm", string(runner.Name())).
		Dur("duration", time.Since(start)).
		Msg("Analysis complete")

	return result, nil
}

// Cooccurrence derives the weighted item graph for callers that need it before running
// HIERARCHICAL or CENTRALITY
func (e *Engine) Cooccurrence(entities []models.Entity, relations []models.Relation, containerType, itemType string) models.Graph {
	g, stats := materialization.BuildCooccurrenceWithStats(entities, relations, containerType, itemType)
	e.logger.Debug().
		Str("container_type", containerType).
		Str("item_type", itemType).
		Int("containers", stats.Containers).
		Int("items", stats.Items).
		Int("pairs", stats.Pairs).
		Msg("Co-occurrence graph built")
	return g
}
