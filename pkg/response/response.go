package response

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"keywordanalyzer/internal/log"
)

// Response is the envelope of every JSON body served by the ops endpoint.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	res := Response{
		Status:     http.StatusText(statusCode),
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Logger.Error("failed to encode JSON response", zap.Int("status_code", statusCode), zap.Error(err))
	}
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data, "")
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, nil, message)
}

// MethodNotAllowed answers with 405 and the Allow header set to allowed.
func MethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
