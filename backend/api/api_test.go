package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-analytics-service/backend/config"
	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
	"github.com/gilchrisn/graph-analytics-service/backend/models"
	"github.com/gilchrisn/graph-analytics-service/backend/service"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
	domain "github.com/gilchrisn/graph-analytics-service/pkg/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	collector := metrics.NewCollector("test")
	eng := engine.New(engine.NewConfig()).WithLogger(zerolog.Nop())
	datasets := service.NewDatasetService(collector)
	analysis := service.NewAnalysisService(datasets, eng, collector)
	jobs := service.NewJobService(analysis, config.JobConfig{MaxWorkers: 2, JobTimeout: time.Minute, ResultTTL: time.Hour}, collector)
	t.Cleanup(jobs.Stop)

	handlers := NewHandlers(datasets, analysis, jobs, 1<<20)
	return NewRouter(handlers, collector, limiter)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func herbDataset() models.CreateDatasetRequest {
	return models.CreateDatasetRequest{
		Name: "herbs",
		Entities: []domain.Entity{
			{Type: "patient", Name: "p1"},
			{Type: "patient", Name: "p3"},
			{Type: "patient", Name: "p2"},
			{Type: "herb", Name: "h1"},
			{Type: "herb", Name: "h2"},
			{Type: "herb", Name: "h3"},
		},
		Relations: []domain.Relation{
			{Source: "p1", Relation: "takes", Target: "h1"},
			{Source: "p1", Relation: "takes", Target: "h2"},
			{Source: "p2", Relation: "takes", Target: "h1"},
			{Source: "p2", Relation: "takes", Target: "h2"},
			{Source: "p3", Relation: "takes", Target: "h3"},
		},
	}
}

func createDataset(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, env := do(t, h, http.MethodPost, "/api/v1/datasets", herbDataset())
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var upload models.UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &upload))
	require.NotEmpty(t, upload.DatasetID)
	return upload.DatasetID
}

func TestDatasetEndpoints(t *testing.T) {
	h := newTestServer(t, nil)
	id := createDataset(t, h)

	rec, env := do(t, h, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Datasets []models.DatasetSummary `json:"datasets"`
		Total    int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, id, list.Datasets[0].ID)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/datasets/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/datasets/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/datasets/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestCreateDataset_BadBody(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := do(t, h, http.MethodPost, "/api/v1/datasets", map[string]interface{}{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	invalid := herbDataset()
	invalid.Relations = append(invalid.Relations, domain.Relation{Source: "p1"})
	rec, _ = do(t, h, http.MethodPost, "/api/v1/datasets", invalid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCooccurrenceEndpoint_MatchesLibrary(t *testing.T) {
	h := newTestServer(t, nil)
	id := createDataset(t, h)

	rec, env := do(t, h, http.MethodPost, "/api/v1/datasets/"+id+"/cooccurrence",
		models.CooccurrenceRequest{ContainerType: "patient", ItemType: "herb"})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var response models.CooccurrenceResponse
	require.NoError(t, json.Unmarshal(env.Data, &response))
	graph := response.Graph
	assert.Equal(t, 3, response.Stats.NodeCount)
	assert.Equal(t, 1, response.Stats.EdgeCount)
	assert.Equal(t, 2, response.Stats.ConnectedComponents)

	d := herbDataset()
	want := engine.New(nil).WithLogger(zerolog.Nop()).Cooccurrence(d.Entities, d.Relations, "patient", "herb")
	assert.Equal(t, want.NodeIDs(), graph.NodeIDs())
	require.Len(t, graph.Links, len(want.Links))
	for i := range want.Links {
		assert.Equal(t, want.Links[i].Source, graph.Links[i].Source)
		assert.Equal(t, want.Links[i].Target, graph.Links[i].Target)
		assert.Equal(t, want.Links[i].LinkWeight(), graph.Links[i].LinkWeight())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	id := createDataset(t, h)

	rec, env := do(t, h, http.MethodPost, "/api/v1/datasets/"+id+"/analyze", map[string]interface{}{
		"algorithm":  "ASSOCIATION",
		"parameters": map[string]interface{}{"frontType": "patient", "backType": "herb"},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var response struct {
		Algorithm string `json:"algorithm"`
		Result    struct {
			Rules []domain.AssociationRule `json:"rules"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &response))
	assert.Equal(t, "ASSOCIATION", response.Algorithm)
	assert.NotEmpty(t, response.Result.Rules)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"unknown dataset", "/api/v1/datasets/missing/analyze", map[string]interface{}{"algorithm": "KMEANS"}, http.StatusNotFound},
		{"unknown algorithm", "/api/v1/datasets/" + id + "/analyze", map[string]interface{}{"algorithm": "louvain"}, http.StatusBadRequest},
		{"invalid k", "/api/v1/datasets/" + id + "/analyze", map[string]interface{}{
			"algorithm":  "KMEANS",
			"parameters": map[string]interface{}{"targetType": "patient", "k": 0},
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestJobEndpoints(t *testing.T) {
	h := newTestServer(t, nil)
	id := createDataset(t, h)

	rec, env := do(t, h, http.MethodPost, "/api/v1/datasets/"+id+"/jobs", map[string]interface{}{
		"algorithm":    "CENTRALITY",
		"cooccurrence": map[string]string{"containerType": "patient", "itemType": "herb"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, env.Error)

	var submitted models.JobResponse
	require.NoError(t, json.Unmarshal(env.Data, &submitted))

	require.Eventually(t, func() bool {
		rec, env := do(t, h, http.MethodGet, "/api/v1/jobs/"+submitted.JobID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var job struct {
			Status models.JobStatus `json:"status"`
		}
		return json.Unmarshal(env.Data, &job) == nil && job.Status == models.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/datasets/"+id+"/jobs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodDelete, "/api/v1/jobs/"+submitted.JobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job struct {
		Status models.JobStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, models.JobStatusCompleted, job.Status, "finished jobs are not cancelled")

	rec, _ = do(t, h, http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlgorithmsAndHealth(t *testing.T) {
	h := newTestServer(t, nil)

	rec, env := do(t, h, http.MethodGet, "/api/v1/algorithms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var algorithms []AlgorithmInfo
	require.NoError(t, json.Unmarshal(env.Data, &algorithms))
	require.Len(t, algorithms, 5)
	assert.Equal(t, engine.AlgorithmHierarchical, algorithms[0].Name)
	assert.Equal(t, "graph", algorithms[0].Input)
	assert.Equal(t, []string{"euclidean", "manhattan", "chebyshev", "lance"}, algorithms[0].Options["distanceType"])
	assert.Equal(t, []string{"complete", "average", "centroid"}, algorithms[0].Options["method"])
	assert.Empty(t, algorithms[1].Options)

	rec, env = do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, nil)
	do(t, h, http.MethodGet, "/api/v1/health", nil)

	rec, _ := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil)

	rec, _ := do(t, h, http.MethodOptions, "/api/v1/datasets", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, env := do(t, h, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRecoveryMiddleware(t *testing.T) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(prev)

	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
