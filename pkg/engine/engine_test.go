package engine

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

func testEngine() *Engine {
	config := NewConfig()
	config.Set("centrality.num_workers", 2)
	return New(config).WithLogger(zerolog.Nop())
}

func herbFixture() ([]models.Entity, []models.Relation) {
	entities := []models.Entity{
		{Type: "patient", Name: "p1"},
		{Type: "patient", Name: "p3"},
		{Type: "patient", Name: "p2"},
		{Type: "patient", Name: "p4"},
		{Type: "herb", Name: "h1"},
		{Type: "herb", Name: "h2"},
		{Type: "herb", Name: "h3"},
		{Type: "herb", Name: "h4"},
	}
	relations := []models.Relation{
		{Source: "p1", Relation: "takes", Target: "h1"},
		{Source: "p1", Relation: "takes", Target: "h2"},
		{Source: "p2", Relation: "takes", Target: "h1"},
		{Source: "p2", Relation: "takes", Target: "h2"},
		{Source: "p3", Relation: "takes", Target: "h3"},
		{Source: "p3", Relation: "takes", Target: "h4"},
		{Source: "p4", Relation: "takes", Target: "h3"},
		{Source: "p4", Relation: "takes", Target: "h4"},
	}
	return entities, relations
}

func pathGraph() models.Graph {
	return models.Graph{
		Nodes: []models.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Links: []models.Link{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
		},
	}
}

func TestRun_DispatchesByParamsType(t *testing.T) {
	e := testEngine()
	entities, relations := herbFixture()
	ctx := context.Background()

	t.Run("hierarchical", func(t *testing.T) {
		result, err := e.Run(ctx, Request{Params: HierarchicalParams{}, Graph: pathGraph()})
		require.NoError(t, err)
		h, ok := result.(*HierarchicalResult)
		require.True(t, ok)
		require.NotNil(t, h.Tree)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, h.Tree.Leaves())
		assert.Equal(t, AlgorithmHierarchical, result.Algorithm())
	})

	t.Run("kmeans", func(t *testing.T) {
		result, err := e.Run(ctx, Request{
			Params:    KMeansParams{TargetType: "patient", K: 2},
			Entities:  entities,
			Relations: relations,
		})
		require.NoError(t, err)
		k := result.(*KMeansResult)
		assert.Equal(t, map[string]int{"p1": 0, "p2": 0, "p3": 1, "p4": 1}, k.Result)
		assert.Len(t, k.Nodes, 4)
	})

	t.Run("community", func(t *testing.T) {
		result, err := e.Run(ctx, Request{
			Params:    CommunityParams{FrontType: "patient", BackType: "herb"},
			Entities:  entities,
			Relations: relations,
		})
		require.NoError(t, err)
		c := result.(*CommunityResult)
		assert.GreaterOrEqual(t, c.Communities, 2)
		require.Len(t, c.Nodes, 8)
		labels := make(map[string]int)
		for _, n := range c.Nodes {
			require.NotNil(t, n.Metrics)
			require.NotNil(t, n.Metrics.Community)
			labels[n.ID] = *n.Metrics.Community
		}
		assert.NotEqual(t, labels["p1"], labels["p3"], "disconnected components never share a community")
		assert.Len(t, c.Links, 8)
	})

	t.Run("association", func(t *testing.T) {
		result, err := e.Run(ctx, Request{
			Params:    AssociationParams{FrontType: "patient", BackType: "herb"},
			Entities:  entities,
			Relations: relations,
		})
		require.NoError(t, err)
		a := result.(*AssociationResult)
		assert.NotEmpty(t, a.Rules)
		for i := 1; i < len(a.Rules); i++ {
			assert.GreaterOrEqual(t, a.Rules[i-1].Lift, a.Rules[i].Lift)
		}
	})

	t.Run("centrality", func(t *testing.T) {
		result, err := e.Run(ctx, Request{Params: CentralityParams{}, Graph: pathGraph()})
		require.NoError(t, err)
		c := result.(*CentralityResult)
		require.Len(t, c.Degree, 3)
		assert.Equal(t, "b", c.Degree[0].ID)
		assert.Equal(t, "b", c.Betweenness[0].ID)
		assert.InDelta(t, 1.0, c.Betweenness[0].Val, 1e-9)
		assert.Len(t, c.PageRank, 3)
		assert.Len(t, c.Nodes, 3)
	})
}

func TestRun_AcceptsPointerParams(t *testing.T) {
	e := testEngine()
	params, err := NewParams(AlgorithmHierarchical)
	require.NoError(t, err)
	params.(*HierarchicalParams).DistanceType = "manhattan"
	params.(*HierarchicalParams).Method = "average"

	result, err := e.Run(context.Background(), Request{Params: params, Graph: pathGraph()})
	require.NoError(t, err)
	assert.NotNil(t, result.(*HierarchicalResult).Tree)
}

func TestRun_InvalidParameters(t *testing.T) {
	e := testEngine()

	tests := []struct {
		name   string
		params Params
	}{
		{"missing params", nil},
		{"k zero", KMeansParams{TargetType: "patient", K: 0}},
		{"missing target type", KMeansParams{K: 2}},
		{"support above one", AssociationParams{FrontType: "a", BackType: "b", MinSupport: 1.5}},
		{"negative confidence", AssociationParams{FrontType: "a", BackType: "b", MinConfidence: -0.1}},
		{"unknown distance", HierarchicalParams{DistanceType: "cosine"}},
		{"unknown linkage", HierarchicalParams{Method: "single"}},
		{"missing back type", CommunityParams{FrontType: "a"}},
		{"nil pointer", (*KMeansParams)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(context.Background(), Request{Params: tt.params})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameters), "got %v", err)
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	e := testEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, Request{Params: CentralityParams{}, Graph: pathGraph()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_EmptyInputs(t *testing.T) {
	e := testEngine()
	ctx := context.Background()

	result, err := e.Run(ctx, Request{Params: HierarchicalParams{}})
	require.NoError(t, err)
	assert.Nil(t, result.(*HierarchicalResult).Tree)

	result, err = e.Run(ctx, Request{Params: CentralityParams{}})
	require.NoError(t, err)
	assert.Empty(t, result.(*CentralityResult).Degree)

	result, err = e.Run(ctx, Request{Params: KMeansParams{TargetType: "patient", K: 3}})
	require.NoError(t, err)
	assert.Empty(t, result.(*KMeansResult).Result)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm(" kmeans ")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmKMeans, alg)

	_, err = ParseAlgorithm("louvain")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = NewParams("louvain")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestEngine_Algorithms(t *testing.T) {
	assert.Equal(t, Algorithms(), testEngine().Algorithms())
}

func TestEngine_Cooccurrence(t *testing.T) {
	entities, relations := herbFixture()
	g := testEngine().Cooccurrence(entities, relations, "patient", "herb")

	assert.Equal(t, []string{"h1", "h2", "h3", "h4"}, g.NodeIDs())
	require.Len(t, g.Links, 2)
	assert.Equal(t, "h1", g.Links[0].Source)
	assert.Equal(t, "h2", g.Links[0].Target)
	assert.InDelta(t, 2.0, g.Links[0].LinkWeight(), 1e-9)

	result, err := testEngine().Run(context.Background(), Request{Params: HierarchicalParams{}, Graph: g})
	require.NoError(t, err)
	tree := result.(*HierarchicalResult).Tree
	require.NotNil(t, tree)
	assert.Len(t, tree.Leaves(), 4)
	assert.False(t, math.IsNaN(tree.Distance))
}
