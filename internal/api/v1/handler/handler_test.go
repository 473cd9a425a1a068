package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"keywordanalyzer/internal/service"
)

func TestHealthCheckHandler(t *testing.T) {
	progress := func() service.Progress { return service.Progress{Total: 5, Completed: 2} }

	tests := []struct {
		name           string
		method         string
		progress       ProgressFunc
		expectedStatus int
		expectedDone   int64
	}{
		{name: "GET", method: http.MethodGet, progress: progress, expectedStatus: http.StatusOK, expectedDone: 2},
		{name: "No progress source", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "POST", method: http.MethodPost, progress: progress, expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HealthCheckHandler(tt.progress)(rr, httptest.NewRequest(tt.method, "/health", nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var body struct {
				Data Health `json:"data"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Data.Status != "ok" {
				t.Errorf("Status = %q, want ok", body.Data.Status)
			}
			if body.Data.Progress.Completed != tt.expectedDone {
				t.Errorf("Completed = %d, want %d", body.Data.Progress.Completed, tt.expectedDone)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	server := httptest.NewServer(MetricsHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("metrics output is missing the go collector")
	}
}
