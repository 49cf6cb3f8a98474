package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the API under /api/v1 and metrics under /metrics
func SetupRoutes(router *mux.Router, handlers *Handlers, gatherer prometheus.Gatherer) {
	api := router.PathPrefix("/api/v1").Subrouter()

	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("", handlers.SubmitJob).Methods("POST")
	jobs.HandleFunc("", handlers.ListJobs).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods("GET")
	jobs.HandleFunc("/{jobId}", handlers.CancelJob).Methods("DELETE")

	api.HandleFunc("/rounding-strategies", handlers.ListRoundingStrategies).Methods("GET")
	api.HandleFunc("/datasets", handlers.ListDatasets).Methods("GET")
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Preflight requests never match a method-restricted route.
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
}
