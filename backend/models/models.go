package models

import (
	"encoding/json"
	"time"

	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	domain "github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Dataset is an in-memory heterogeneous graph: typed entities plus relations between them
type Dataset struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Entities  []domain.Entity   `json:"entities"`
	Relations []domain.Relation `json:"relations"`
	Metadata  DatasetMetadata   `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type DatasetMetadata struct {
	EntityCount   int            `json:"entityCount"`
	RelationCount int            `json:"relationCount"`
	EntityTypes   map[string]int `json:"entityTypes"`
	// relations naming an unknown entity; algorithms ignore them
	DanglingRelations int `json:"danglingRelations"`
}

// DatasetSummary is the list view of a dataset
type DatasetSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Metadata  DatasetMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Job is an asynchronous analysis run
type Job struct {
	ID          string           `json:"id"`
	DatasetID   string           `json:"datasetId"`
	Algorithm   engine.Algorithm `json:"algorithm"`
	Parameters  json.RawMessage  `json:"parameters,omitempty"`
	Status      JobStatus        `json:"status"`
	Progress    JobProgress      `json:"progress"`
	Result      *JobResult       `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	StartedAt   *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job can no longer change state
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

type JobProgress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type JobResult struct {
	ProcessingTimeMS int64         `json:"processingTimeMS"`
	Output           engine.Result `json:"output"`
}

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateDatasetRequest is the body of POST /datasets
type CreateDatasetRequest struct {
	Name      string            `json:"name"`
	Entities  []domain.Entity   `json:"entities" validate:"dive"`
	Relations []domain.Relation `json:"relations" validate:"dive"`
}

// CooccurrenceRequest selects the container and item types of a co-occurrence graph
type CooccurrenceRequest struct {
	ContainerType string `json:"containerType" validate:"required"`
	ItemType      string `json:"itemType" validate:"required"`
}

// AnalysisRequest runs one algorithm against a dataset. Graph-based algorithms use Graph
// when given, otherwise the co-occurrence graph derived with Cooccurrence.
type AnalysisRequest struct {
	Algorithm    string               `json:"algorithm" validate:"required"`
	Parameters   json.RawMessage      `json:"parameters,omitempty"`
	Graph        *domain.Graph        `json:"graph,omitempty"`
	Cooccurrence *CooccurrenceRequest `json:"cooccurrence,omitempty"`
}

type CooccurrenceResponse struct {
	Graph domain.Graph `json:"graph"`
	Stats graph.Stats  `json:"stats"`
}

type AnalysisResponse struct {
	Algorithm        engine.Algorithm `json:"algorithm"`
	ProcessingTimeMS int64            `json:"processingTimeMS"`
	Result           engine.Result    `json:"result"`
}

type UploadResponse struct {
	DatasetID string  `json:"datasetId"`
	Dataset   Dataset `json:"dataset"`
}

type JobResponse struct {
	JobID string `json:"jobId"`
	Job   Job    `json:"job"`
}
