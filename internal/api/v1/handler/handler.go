package handler

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"keywordanalyzer/internal/service"
	"keywordanalyzer/pkg/response"
)

// ProgressFunc reports how far the current analysis has got.
type ProgressFunc func() service.Progress

type Health struct {
	Status   string           `json:"status"`
	Uptime   string           `json:"uptime"`
	Progress service.Progress `json:"progress"`
}

func HealthCheckHandler(progress ProgressFunc) http.HandlerFunc {
	started := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			response.MethodNotAllowed(w, "GET, HEAD")
			return
		}

		health := Health{
			Status: "ok",
			Uptime: time.Since(started).Truncate(time.Second).String(),
		}
		if progress != nil {
			health.Progress = progress()
		}
		response.Success(w, health)
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
