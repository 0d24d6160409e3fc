// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler converts pipeline errors into HTTP error responses
// with a uniform body shape.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// errorBody is the wire shape of a request-level failure.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
}

// WriteError normalizes err, logs it, and writes the JSON error body
// with the status derived from the error kind.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, requestID string, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logger.Error("request failed", map[string]interface{}{
		"requestId": requestID,
		"errorCode": string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
	})

	body := errorBody{
		Error: errorDetail{
			Code:      string(stdErr.Code),
			Message:   stdErr.Message,
			Details:   stdErr.Details,
			Timestamp: stdErr.Timestamp.UTC().Format(time.RFC3339),
			RequestID: requestID,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
