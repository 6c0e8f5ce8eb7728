package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
	"github.com/gilchrisn/graph-analytics-service/backend/models"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

// AnalysisService turns API requests into engine runs
type AnalysisService struct {
	datasetService *DatasetService
	engine         *engine.Engine
	metrics        *metrics.Collector
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(datasetService *DatasetService, eng *engine.Engine, collector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		datasetService: datasetService,
		engine:         eng,
		metrics:        collector,
	}
}

// Algorithms lists the algorithms the service can run
func (s *AnalysisService) Algorithms() []engine.Algorithm {
	return s.engine.Algorithms()
}

// Prepare resolves the dataset, decodes parameters and validates them without running
func (s *AnalysisService) Prepare(datasetID string, req models.AnalysisRequest) (engine.Request, error) {
	if err := validateRequest(req); err != nil {
		return engine.Request{}, err
	}

	dataset, err := s.datasetService.Get(datasetID)
	if err != nil {
		return engine.Request{}, err
	}

	alg, err := engine.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return engine.Request{}, err
	}

	params, err := DecodeParams(alg, req.Parameters)
	if err != nil {
		return engine.Request{}, err
	}

	request := engine.Request{
		Params:    params,
		Entities:  dataset.Entities,
		Relations: dataset.Relations,
	}

	switch {
	case req.Graph != nil:
		request.Graph = *req.Graph
	case req.Cooccurrence != nil:
		graph, err := s.datasetService.Cooccurrence(datasetID, *req.Cooccurrence)
		if err != nil {
			return engine.Request{}, err
		}
		request.Graph = graph
	case alg == engine.AlgorithmHierarchical || alg == engine.AlgorithmCentrality:
		return engine.Request{}, errors.Wrapf(ErrInvalidRequest, "%s needs a graph or a cooccurrence selection", alg)
	}

	if _, err := s.engine.Validate(request); err != nil {
		return engine.Request{}, err
	}

	return request, nil
}

// Execute runs a prepared request and records its metrics
func (s *AnalysisService) Execute(ctx context.Context, request engine.Request) (*models.AnalysisResponse, error) {
	alg := request.Params.Algorithm()

	start := time.Now()
	result, err := s.engine.Run(ctx, request)
	duration := time.Since(start)

	s.metrics.RecordAnalysis(string(alg), err, duration)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResponse{
		Algorithm:        alg,
		ProcessingTimeMS: duration.Milliseconds(),
		Result:           result,
	}, nil
}

// Run prepares and executes req synchronously against a dataset
func (s *AnalysisService) Run(ctx context.Context, datasetID string, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	request, err := s.Prepare(datasetID, req)
	if err != nil {
		return nil, err
	}

	response, err := s.Execute(ctx, request)
	if err != nil {
		log.Error().
			Err(err).
			Str("dataset_id", datasetID).
			Str("algorithm", req.Algorithm).
			Msg("Analysis failed")
		return nil, err
	}

	return response, nil
}

// DecodeParams decodes a JSON parameter object into the record of alg. Empty input yields
// the zero record.
func DecodeParams(alg engine.Algorithm, raw json.RawMessage) (engine.Params, error) {
	params, err := engine.NewParams(alg)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return params, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(params); err != nil {
		return nil, errors.Wrapf(engine.ErrInvalidParameters, "%s: %v", alg, err)
	}

	return params, nil
}
