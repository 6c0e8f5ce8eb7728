package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
)

// NewRouter builds the HTTP router with the full middleware stack. A nil limiter disables
// rate limiting.
func NewRouter(handlers *Handlers, collector *metrics.Collector, limiter *RateLimiter) *mux.Router {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)
	router.Use(MetricsMiddleware(collector))
	if limiter != nil {
		router.Use(limiter.Middleware)
	}

	return router
}

func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods("GET")
	datasets.HandleFunc("", handlers.CreateDataset).Methods("POST")
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods("GET")
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods("DELETE")

	// Analysis endpoints
	datasets.HandleFunc("/{datasetId}/cooccurrence", handlers.BuildCooccurrence).Methods("POST")
	datasets.HandleFunc("/{datasetId}/analyze", handlers.Analyze).Methods("POST")
	datasets.HandleFunc("/{datasetId}/jobs", handlers.SubmitJob).Methods("POST")
	datasets.HandleFunc("/{datasetId}/jobs", handlers.ListJobs).Methods("GET")

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.CancelJob).Methods("DELETE")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Algorithm info endpoint
	api.HandleFunc("/algorithms", handlers.ListAlgorithms).Methods("GET")

	api.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Let CORS middleware handle it
	}).Methods("OPTIONS")
}
