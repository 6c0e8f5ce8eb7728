package service

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
	"github.com/gilchrisn/graph-analytics-service/backend/models"
	"github.com/gilchrisn/graph-analytics-service/pkg/graph"
	"github.com/gilchrisn/graph-analytics-service/pkg/materialization"
	domain "github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// DatasetService keeps datasets in memory
type DatasetService struct {
	datasets map[string]*models.Dataset
	metrics  *metrics.Collector
	mutex    sync.RWMutex
}

// NewDatasetService creates a new dataset service
func NewDatasetService(collector *metrics.Collector) *DatasetService {
	return &DatasetService{
		datasets: make(map[string]*models.Dataset),
		metrics:  collector,
	}
}

// Create validates and stores a dataset under a fresh id
func (s *DatasetService) Create(req models.CreateDatasetRequest) (*models.Dataset, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "Unnamed Dataset"
	}

	now := time.Now()
	dataset := &models.Dataset{
		ID:        uuid.New().String(),
		Name:      name,
		Entities:  append([]domain.Entity{}, req.Entities...),
		Relations: append([]domain.Relation{}, req.Relations...),
		Metadata:  analyze(req.Entities, req.Relations),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mutex.Lock()
	s.datasets[dataset.ID] = dataset
	count := len(s.datasets)
	s.mutex.Unlock()

	s.metrics.Datasets.Set(float64(count))

	log.Info().
		Str("dataset_id", dataset.ID).
		Str("name", dataset.Name).
		Int("entities", dataset.Metadata.EntityCount).
		Int("relations", dataset.Metadata.RelationCount).
		Int("dangling_relations", dataset.Metadata.DanglingRelations).
		Msg("Dataset created")

	return dataset, nil
}

// Get retrieves a dataset by ID
func (s *DatasetService) Get(datasetID string) (*models.Dataset, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	dataset, exists := s.datasets[datasetID]
	if !exists {
		return nil, errors.Wrapf(ErrDatasetNotFound, "%s", datasetID)
	}

	return dataset, nil
}

// List returns dataset summaries, oldest first
func (s *DatasetService) List() []models.DatasetSummary {
	s.mutex.RLock()
	summaries := make([]models.DatasetSummary, 0, len(s.datasets))
	for _, dataset := range s.datasets {
		summaries = append(summaries, models.DatasetSummary{
			ID:        dataset.ID,
			Name:      dataset.Name,
			Metadata:  dataset.Metadata,
			CreatedAt: dataset.CreatedAt,
		})
	}
	s.mutex.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// Delete removes a dataset
func (s *DatasetService) Delete(datasetID string) error {
	s.mutex.Lock()
	if _, exists := s.datasets[datasetID]; !exists {
		s.mutex.Unlock()
		return errors.Wrapf(ErrDatasetNotFound, "%s", datasetID)
	}
	delete(s.datasets, datasetID)
	count := len(s.datasets)
	s.mutex.Unlock()

	s.metrics.Datasets.Set(float64(count))

	log.Info().Str("dataset_id", datasetID).Msg("Dataset deleted")
	return nil
}

// Cooccurrence derives the item graph of a dataset for the given container/item types
func (s *DatasetService) Cooccurrence(datasetID string, req models.CooccurrenceRequest) (domain.Graph, error) {
	if err := validateRequest(req); err != nil {
		return domain.Graph{}, err
	}

	dataset, err := s.Get(datasetID)
	if err != nil {
		return domain.Graph{}, err
	}

	g, stats := materialization.BuildCooccurrenceWithStats(dataset.Entities, dataset.Relations, req.ContainerType, req.ItemType)

	log.Debug().
		Str("dataset_id", datasetID).
		Str("container_type", req.ContainerType).
		Str("item_type", req.ItemType).
		Int("containers", stats.Containers).
		Int("items", stats.Items).
		Int("pairs", stats.Pairs).
		Msg("Co-occurrence graph derived")

	return g, nil
}

// Describe derives the co-occurrence graph together with its shape statistics
func (s *DatasetService) Describe(datasetID string, req models.CooccurrenceRequest) (*models.CooccurrenceResponse, error) {
	g, err := s.Cooccurrence(datasetID, req)
	if err != nil {
		return nil, err
	}
	return &models.CooccurrenceResponse{Graph: g, Stats: graph.ComputeStats(g)}, nil
}

func analyze(entities []domain.Entity, relations []domain.Relation) models.DatasetMetadata {
	metadata := models.DatasetMetadata{
		EntityCount:   len(entities),
		RelationCount: len(relations),
		EntityTypes:   make(map[string]int),
	}
	for _, e := range entities {
		metadata.EntityTypes[e.Type]++
	}

	known := domain.EntityTypes(entities)
	for _, r := range relations {
		_, sourceKnown := known[r.Source]
		_, targetKnown := known[r.Target]
		if !sourceKnown || !targetKnown {
			metadata.DanglingRelations++
		}
	}
	return metadata
}
