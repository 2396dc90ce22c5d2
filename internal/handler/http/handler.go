package http

import (
	"context"
	"encoding/json"
	"net/http"

	"shortlink/internal/service"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// URLService interface defines the service methods needed by the handler
type URLService interface {
	Shorten(ctx context.Context, originalURL string) (*service.ShortenResult, error)
	Resolve(ctx context.Context, shortCode string) service.Lookup
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	urlService URLService
	log        *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(urlService URLService, log *logger.Logger) *Handler {
	return &Handler{
		urlService: urlService,
		log:        log,
	}
}

// Request/Response DTOs

// ShortenRequest is the body of POST /shorten. URL is a pointer so a
// missing field can be told apart from an empty one.
type ShortenRequest struct {
	URL *string `json:"url"`
}

type ShortenResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

type MappingResponse struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
}

// Shorten handles POST /shorten
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validator.ValidateRequestURL(req.URL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.urlService.Shorten(r.Context(), *req.URL)
	if err != nil {
		// The service has already logged the cause.
		respondError(w, http.StatusInternalServerError, "Failed to shorten URL")
		return
	}

	respondJSON(w, http.StatusOK, ShortenResponse{
		ShortCode: res.ShortCode,
		ShortURL:  res.ShortURL,
	})
}

// Resolve handles GET /get/{short_code}
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	lookup := h.urlService.Resolve(r.Context(), chi.URLParam(r, "short_code"))
	recordLookup("resolve", lookup)

	respondJSON(w, http.StatusOK, mapResolve(lookup))
}

// Redirect handles GET /{short_code}
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	lookup := h.urlService.Resolve(r.Context(), chi.URLParam(r, "short_code"))
	recordLookup("redirect", lookup)

	target, found := mapRedirect(lookup)
	if !found {
		h.log.WithContext(r.Context()).Debug("redirecting to not found page",
			zap.String("short_code", chi.URLParam(r, "short_code")),
			zap.Stringer("outcome", lookup.Outcome),
		)
	}
	redirect(w, target, found)
}

// Ping handles GET /ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.urlService.Ping(r.Context()); err != nil {
		h.log.WithContext(r.Context()).Error("store ping failed", zap.Error(err))
		respondText(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	respondText(w, http.StatusOK, "ok")
}
