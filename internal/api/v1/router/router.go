package router

import (
	"net/http"

	"keywordanalyzer/internal/api/v1/handler"
	"keywordanalyzer/internal/api/v1/middleware"
)

const (
	AppName    = "keywordanalyzer"
	APIVersion = "v1"
	BasePath   = "/" + AppName + "/api/" + APIVersion
)

// NewOpsRouter serves the health and metrics endpoints exposed while a run is in progress.
func NewOpsRouter(progress handler.ProgressFunc) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(BasePath+"/health", handler.HealthCheckHandler(progress))
	mux.Handle("/metrics", handler.MetricsHandler())

	return middleware.RecoverPanic(middleware.Logging(middleware.Metrics(mux)))
}
