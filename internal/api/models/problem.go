package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 problem document, written with Content-Type
// application/problem+json for every API error.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID is the request ID, echoed in the X-Request-Id header.
	TraceID string `json:"traceId"`

	// Errors lists field validation failures.
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://statusboard.dev/problems/validation-error"
	ProblemTypeUnauthorized    = "https://statusboard.dev/problems/unauthorized"
	ProblemTypeNotFound        = "https://statusboard.dev/problems/not-found"
	ProblemTypeEditMode        = "https://statusboard.dev/problems/edit-mode"
	ProblemTypeTooManyRequests = "https://statusboard.dev/problems/too-many-requests"
	ProblemTypeInternal        = "https://statusboard.dev/problems/internal-error"
	ProblemTypeMediaType       = "https://statusboard.dev/problems/unsupported-media-type"
	ProblemTypeTLSRequired     = "https://statusboard.dev/problems/tls-required"
)

// NewProblem creates a Problem without detail.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

func newProblemWithDetail(problemType, title string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, title, status, traceID)
	p.Detail = detail
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 problem listing the offending fields.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := newProblemWithDetail(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized creates a 401 problem for missing or rejected operator tokens.
func NewUnauthorized(traceID, detail string) *Problem {
	return newProblemWithDetail(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID, detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return newProblemWithDetail(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

// NewEditModeConflict creates a 409 problem for actions that clash with the
// dashboard's edit mode.
func NewEditModeConflict(traceID, detail string) *Problem {
	return newProblemWithDetail(ProblemTypeEditMode, "Edit mode conflict", http.StatusConflict, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return newProblemWithDetail(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 problem for request bodies that are not JSON.
func NewUnsupportedMediaType(traceID, contentType string) *Problem {
	return newProblemWithDetail(ProblemTypeMediaType, "Unsupported media type", http.StatusUnsupportedMediaType, traceID,
		"Content-Type must be application/json, got "+contentType)
}

// NewTLSRequired creates a 403 problem for requests that arrived over plain HTTP.
func NewTLSRequired(traceID string) *Problem {
	return newProblemWithDetail(ProblemTypeTLSRequired, "TLS required", http.StatusForbidden, traceID,
		"the statusboard API only accepts HTTPS")
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return newProblemWithDetail(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}
