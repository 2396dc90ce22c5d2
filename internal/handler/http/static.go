package http

import "net/http"

const (
	greetingText = "Welcome to the URL shortener! POST a JSON body {\"url\": \"...\"} to /shorten."
	notFoundText = "404 Not Found: this short link does not exist."
)

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, greetingText)
}

// NotFoundPage handles GET /404, the target of redirects for unknown codes.
func (h *Handler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusNotFound, notFoundText)
}
