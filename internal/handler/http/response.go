package http

import (
	"encoding/json"
	"net/http"

	"shortlink/internal/metrics"
	"shortlink/internal/service"
)

// NotFoundPath is where unknown short codes are redirected.
const NotFoundPath = "/404"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already sent; nothing useful can be done on failure.
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondText sends a plain text response
func respondText(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(text))
}

// mapResolve turns a lookup into the body of GET /get/{short_code}.
// Absence and backend failure both become JSON null.
func mapResolve(lookup service.Lookup) *MappingResponse {
	if lookup.Outcome != service.OutcomeFound {
		return nil
	}
	return &MappingResponse{
		ShortCode:   lookup.Mapping.ShortCode,
		OriginalURL: lookup.Mapping.OriginalURL,
	}
}

// mapRedirect picks the redirect target. Absence and backend failure both
// send the client to NotFoundPath.
func mapRedirect(lookup service.Lookup) (target string, found bool) {
	if lookup.Outcome != service.OutcomeFound {
		return NotFoundPath, false
	}
	return lookup.Mapping.OriginalURL, true
}

// redirect writes a 307 with the target as given. http.Redirect is not used
// because it rewrites relative targets against the request path.
func redirect(w http.ResponseWriter, target string, found bool) {
	if found {
		metrics.RecordRedirect("original")
	} else {
		metrics.RecordRedirect("not_found")
	}
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

func recordLookup(endpoint string, lookup service.Lookup) {
	metrics.RecordLookup(endpoint, lookup.Outcome.String())
}
