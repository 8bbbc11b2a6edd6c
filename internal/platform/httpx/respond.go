// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details. Maintenance marks 503
// responses caused by maintenance mode so clients can render a distinct
// notice instead of a generic outage page.
type ProblemDetail struct {
	Type        string `json:"type,omitempty"`
	Title       string `json:"title"`
	Status      int    `json:"status"`
	Detail      string `json:"detail,omitempty"`
	Maintenance bool   `json:"maintenance,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// MaintenanceProblem sends the maintenance-tagged 503 used while the
// platform is locked down.
func MaintenanceProblem(w http.ResponseWriter, detail string) {
	JSON(w, http.StatusServiceUnavailable, ProblemDetail{
		Title:       "Service Unavailable",
		Status:      http.StatusServiceUnavailable,
		Detail:      detail,
		Maintenance: true,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
