package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-analytics-service/backend/models"
	"github.com/gilchrisn/graph-analytics-service/backend/service"
	"github.com/gilchrisn/graph-analytics-service/backend/utils"
	"github.com/gilchrisn/graph-analytics-service/pkg/distance"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
	"github.com/gilchrisn/graph-analytics-service/pkg/hierarchical"
)

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService  *service.DatasetService
	analysisService *service.AnalysisService
	jobService      *service.JobService
	maxBodyBytes    int64
	startedAt       time.Time
}

// NewHandlers creates new API handlers
func NewHandlers(datasetService *service.DatasetService, analysisService *service.AnalysisService, jobService *service.JobService, maxBodyBytes int64) *Handlers {
	return &Handlers{
		datasetService:  datasetService,
		analysisService: analysisService,
		jobService:      jobService,
		maxBodyBytes:    maxBodyBytes,
		startedAt:       time.Now(),
	}
}

// AlgorithmInfo describes one algorithm for clients
type AlgorithmInfo struct {
	Name        engine.Algorithm    `json:"name"`
	Input       string              `json:"input"`
	Parameters  []string            `json:"parameters"`
	Options     map[string][]string `json:"options,omitempty"`
	Description string              `json:"description"`
}

var algorithmInfo = map[engine.Algorithm]AlgorithmInfo{
	engine.AlgorithmHierarchical: {
		Input:      "graph",
		Parameters: []string{"distanceType", "method"},
		Options: map[string][]string{
			"distanceType": distanceTypeNames(),
			"method":       linkageNames(),
		},
		Description: "Agglomerative clustering of adjacency rows into a binary dendrogram",
	},
	engine.AlgorithmKMeans: {
		Input:       "entities",
		Parameters:  []string{"targetType", "k"},
		Description: "Lloyd k-means over one-hot neighbour vectors of the target type",
	},
	engine.AlgorithmCommunity: {
		Input:       "entities",
		Parameters:  []string{"frontType", "backType"},
		Description: "Label propagation on the bipartite front/back subgraph",
	},
	engine.AlgorithmAssociation: {
		Input:       "entities",
		Parameters:  []string{"frontType", "backType", "minSupport", "minConfidence"},
		Description: "Front to back association rules ranked by lift",
	},
	engine.AlgorithmCentrality: {
		Input:       "graph",
		Parameters:  []string{},
		Description: "Degree, betweenness, closeness and PageRank rankings",
	},
}

func distanceTypeNames() []string {
	var names []string
	for _, t := range distance.Types() {
		names = append(names, string(t))
	}
	return names
}

func linkageNames() []string {
	var names []string
	for _, l := range hierarchical.Linkages() {
		names = append(names, string(l))
	}
	return names
}

// CreateDataset stores a dataset from a JSON body
func (h *Handlers) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDatasetRequest
	if err := utils.DecodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	dataset, err := h.datasetService.Create(req)
	if err != nil {
		writeServiceError(w, "Dataset creation failed", err)
		return
	}

	utils.WriteStatusResponse(w, http.StatusCreated, "Dataset created successfully", models.UploadResponse{
		DatasetID: dataset.ID,
		Dataset:   *dataset,
	})
}

// ListDatasets lists dataset summaries, paginated
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.datasetService.List()
	page, limit := utils.ExtractPaginationParams(r)
	start, end := utils.Paginate(len(datasets), page, limit)

	utils.WriteSuccessResponse(w, "Datasets retrieved successfully", map[string]interface{}{
		"datasets": datasets[start:end],
		"total":    len(datasets),
		"page":     page,
		"limit":    limit,
	})
}

// GetDataset retrieves a specific dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	dataset, err := h.datasetService.Get(datasetID)
	if err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}

	utils.WriteSuccessResponse(w, "Dataset retrieved successfully", dataset)
}

// DeleteDataset deletes a dataset
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if err := h.datasetService.Delete(datasetID); err != nil {
		writeServiceError(w, "Dataset deletion failed", err)
		return
	}

	utils.WriteSuccessResponse(w, "Dataset deleted successfully", nil)
}

// BuildCooccurrence returns the co-occurrence graph of a dataset
func (h *Handlers) BuildCooccurrence(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var req models.CooccurrenceRequest
	if err := utils.DecodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	response, err := h.datasetService.Describe(datasetID, req)
	if err != nil {
		writeServiceError(w, "Co-occurrence derivation failed", err)
		return
	}

	utils.WriteSuccessResponse(w, "Co-occurrence graph built", response)
}

// Analyze runs one algorithm synchronously
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var req models.AnalysisRequest
	if err := utils.DecodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	response, err := h.analysisService.Run(r.Context(), datasetID, req)
	if err != nil {
		writeServiceError(w, "Analysis failed", err)
		return
	}

	utils.WriteSuccessResponse(w, "Analysis completed", response)
}

// SubmitJob queues an asynchronous analysis
func (h *Handlers) SubmitJob(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var req models.AnalysisRequest
	if err := utils.DecodeJSONBody(w, r, h.maxBodyBytes, &req); err != nil {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.Submit(datasetID, req)
	if err != nil {
		writeServiceError(w, "Job submission failed", err)
		return
	}

	utils.WriteStatusResponse(w, http.StatusAccepted, "Job submitted", models.JobResponse{
		JobID: job.ID,
		Job:   *job,
	})
}

// ListJobs lists the jobs of a dataset
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if _, err := h.datasetService.Get(datasetID); err != nil {
		writeServiceError(w, "Dataset not found", err)
		return
	}

	utils.WriteSuccessResponse(w, "Jobs retrieved successfully", h.jobService.List(datasetID))
}

// GetJob retrieves job status and, once completed, its result
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		writeServiceError(w, "Job not found", err)
		return
	}

	utils.WriteSuccessResponse(w, "Job retrieved successfully", job)
}

// CancelJob cancels a queued or running job
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Cancel(jobID)
	if err != nil {
		writeServiceError(w, "Job cancellation failed", err)
		return
	}

	log.Info().Str("job_id", jobID).Str("status", string(job.Status)).Msg("Job cancel requested")
	utils.WriteSuccessResponse(w, "Job cancelled", job)
}

// ListAlgorithms describes the available algorithms
func (h *Handlers) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	algorithms := make([]AlgorithmInfo, 0)
	for _, alg := range h.analysisService.Algorithms() {
		info := algorithmInfo[alg]
		info.Name = alg
		algorithms = append(algorithms, info)
	}

	utils.WriteSuccessResponse(w, "Available algorithms", algorithms)
}

// HealthCheck reports liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, "Service is healthy", map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"datasets":  len(h.datasetService.List()),
	})
}

// writeServiceError maps service and engine errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg(message)
	}
	utils.WriteErrorResponse(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDatasetNotFound), errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, engine.ErrInvalidParameters),
		errors.Is(err, engine.ErrUnknownAlgorithm):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
