package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/export"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/scheduler"
	"github.com/warroom/warroom-bot/internal/sources"
	"github.com/warroom/warroom-bot/internal/threats"
)

const triggerTimeout = 30 * time.Minute

// botService is the part of *monitoring.Service the HTTP surface uses
type botService interface {
	scheduler.Runner
	Summary(ctx context.Context, activationID string) (*models.DashboardSummary, error)
	GetMetrics() string
}

func newRouter(service botService) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(service)).Methods("GET")
	router.Handle("/metrics/prometheus", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(service)).Methods("POST")

	api := router.PathPrefix("/api/activations/{id}").Subrouter()
	api.HandleFunc("/summary", summaryHandler(service)).Methods("GET")
	api.HandleFunc("/report.csv", reportHandler(service)).Methods("GET")
	api.HandleFunc("/threats", threatsHandler(service)).Methods("GET")
	api.HandleFunc("/timeseries", timeSeriesHandler(service)).Methods("GET")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func metricsHandler(service botService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(service.GetMetrics()))
	}
}

// triggerHandler starts a job in the background; ?job= selects report (default), urgent or refresh
func triggerHandler(service botService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job := r.URL.Query().Get("job")
		var run func(context.Context) error
		switch job {
		case "", "report":
			job, run = "report", service.RunReport
		case "urgent":
			run = service.RunUrgentCheck
		case "refresh":
			run = service.Refresh
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown job %q", job))
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
			defer cancel()
			if err := run(ctx); err != nil {
				logrus.Errorf("Manual %s trigger failed: %v", job, err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": fmt.Sprintf("%s triggered successfully", job)})
	}
}

func summaryHandler(service botService) http.HandlerFunc {
	return withSummary(service, func(w http.ResponseWriter, summary *models.DashboardSummary) {
		writeJSON(w, http.StatusOK, summary)
	})
}

func reportHandler(service botService) http.HandlerFunc {
	return withSummary(service, func(w http.ResponseWriter, summary *models.DashboardSummary) {
		data, err := export.CSV(summary)
		if err != nil {
			logrus.Errorf("Failed to export report for %s: %v", summary.ActivationID, err)
			writeError(w, http.StatusInternalServerError, "failed to export report")
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(summary)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})
}

func threatsHandler(service botService) http.HandlerFunc {
	return withSummary(service, func(w http.ResponseWriter, summary *models.DashboardSummary) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"global_level": summary.KPIs.GlobalThreatLevel,
			"counts":       threats.Summarize(summary.ThreatProfiles),
			"profiles":     summary.ThreatProfiles,
		})
	})
}

func timeSeriesHandler(service botService) http.HandlerFunc {
	return withSummary(service, func(w http.ResponseWriter, summary *models.DashboardSummary) {
		writeJSON(w, http.StatusOK, summary.TimeSeries)
	})
}

// withSummary resolves the {id} route variable to the activation's current summary
func withSummary(service botService, render func(http.ResponseWriter, *models.DashboardSummary)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		summary, err := service.Summary(r.Context(), id)
		if err != nil {
			if errors.Is(err, sources.ErrNotFound) {
				writeError(w, http.StatusNotFound, fmt.Sprintf("activation %s not found", id))
				return
			}
			logrus.Errorf("Failed to build summary for %s: %v", id, err)
			writeError(w, http.StatusBadGateway, "failed to load activation data")
			return
		}

		render(w, summary)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
