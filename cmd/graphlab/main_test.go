package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

const kmeansYAML = `
algorithm: kmeans
parameters:
  targetType: patient
  k: 2
entities:
  - {type: patient, name: p1}
  - {type: patient, name: p3}
  - {type: patient, name: p2}
  - {type: herb, name: h1}
  - {type: herb, name: h2}
  - {type: herb, name: h3}
relations:
  - {source: p1, relation: takes, target: h1}
  - {source: p1, relation: takes, target: h2}
  - {source: p2, relation: takes, target: h1}
  - {source: p2, relation: takes, target: h2}
  - {source: p3, relation: takes, target: h3}
`

const centralityJSON = `{
  "algorithm": "CENTRALITY",
  "graph": {
    "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}],
    "links": [
      {"source": "a", "target": "b"},
      {"source": "b", "target": "c"},
      {"source": "c", "target": "d"}
    ]
  }
}`

func testEngine() *engine.Engine {
	return engine.New(engine.NewConfig()).WithLogger(zerolog.Nop())
}

func writeDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseDocument_YAML(t *testing.T) {
	doc, err := ParseDocument([]byte(kmeansYAML))
	require.NoError(t, err)
	assert.Equal(t, "kmeans", doc.Algorithm)
	assert.Len(t, doc.Entities, 6)

	req, err := doc.Request(testEngine())
	require.NoError(t, err)
	assert.Equal(t, &engine.KMeansParams{TargetType: "patient", K: 2}, req.Params)
}

func TestParseDocument_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"no algorithm", "entities: []"},
		{"unknown key", "algorithm: KMEANS\nextra: 1"},
		{"malformed", "algorithm: [KMEANS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDocumentRequest_Cooccurrence(t *testing.T) {
	doc, err := ParseDocument([]byte(kmeansYAML + "cooccurrence: {containerType: patient, itemType: herb}\n"))
	require.NoError(t, err)
	doc.Algorithm = "HIERARCHICAL"
	doc.Parameters = yaml.Node{}

	req, err := doc.Request(testEngine())
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2", "h3"}, req.Graph.NodeIDs())
	require.Len(t, req.Graph.Links, 1)
	assert.Equal(t, 2.0, req.Graph.Links[0].LinkWeight())
}

func TestDocumentRequest_BadParameters(t *testing.T) {
	doc, err := ParseDocument([]byte("algorithm: KMEANS\nparameters: {k: [1]}\n"))
	require.NoError(t, err)

	_, err = doc.Request(testEngine())
	assert.ErrorIs(t, err, engine.ErrInvalidParameters)

	doc.Algorithm = "louvain"
	_, err = doc.Request(testEngine())
	assert.ErrorIs(t, err, engine.ErrUnknownAlgorithm)
}

func TestRunDocument_KMeans(t *testing.T) {
	path := writeDocument(t, "request.yaml", kmeansYAML)

	var out bytes.Buffer
	require.NoError(t, runDocument(context.Background(), testEngine(), path, -1, &out))

	var printed struct {
		Algorithm string `json:"algorithm"`
		Result    struct {
			Result map[string]int `json:"result"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
	assert.Equal(t, "KMEANS", printed.Algorithm)
	assert.Equal(t, map[string]int{"p1": 0, "p2": 0, "p3": 1}, printed.Result.Result)
}

func TestRunDocument_CentralityTop(t *testing.T) {
	path := writeDocument(t, "request.json", centralityJSON)

	tests := []struct {
		name string
		top  int
		want int
	}{
		{"explicit top", 2, 2},
		{"all", 0, 4},
		{"config default", -1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, runDocument(context.Background(), testEngine(), path, tt.top, &out))

			var printed struct {
				Result struct {
					Degree   []map[string]interface{} `json:"degree"`
					PageRank []map[string]interface{} `json:"pagerank"`
				} `json:"result"`
			}
			require.NoError(t, json.Unmarshal(out.Bytes(), &printed))
			assert.Len(t, printed.Result.Degree, tt.want)
			assert.Len(t, printed.Result.PageRank, tt.want)
		})
	}
}

func TestRunDocument_InvalidParameters(t *testing.T) {
	path := writeDocument(t, "request.yaml", "algorithm: KMEANS\nparameters: {targetType: patient, k: 0}\n")

	err := runDocument(context.Background(), testEngine(), path, -1, &bytes.Buffer{})
	assert.ErrorIs(t, err, engine.ErrInvalidParameters)
}
