package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/MikhailRaia/menu-scraper/internal/logger"
	"github.com/MikhailRaia/menu-scraper/internal/middleware"
	"github.com/MikhailRaia/menu-scraper/internal/model"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

// maxBodySize limits the size of a batch request body after decompression.
const maxBodySize = 10 << 20

// MenuService is the application port used by the HTTP and gRPC handlers.
type MenuService interface {
	IngestBatch(ctx context.Context, body []byte) (model.BatchResult, error)
	ListItems(ctx context.Context, restaurant, sourceURL string) ([]model.MenuItem, error)
	Health(ctx context.Context) model.HealthReport
}

type Handler struct {
	menuService MenuService
	auth        *middleware.AuthMiddleware
}

// NewHandler creates the HTTP handler. A nil auth leaves ingestion open.
func NewHandler(menuService MenuService, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		menuService: menuService,
		auth:        auth,
	}
}

func (h *Handler) RegisterRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(logger.RequestLogger)

	r.Use(middleware.GzipReader)
	r.Use(middleware.GzipMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/menu-items", func(r chi.Router) {
			r.Get("/", h.handleListItems)
			r.Group(func(r chi.Router) {
				if h.auth != nil {
					r.Use(h.auth.RequireAuth)
				}
				r.Post("/batch", h.handleSaveBatch)
			})
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.menuService.Health(r.Context()))
}

func (h *Handler) handleSaveBatch(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		writeError(w, http.StatusBadRequest, errMalformedRequest, "Content-Type must be application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, errMalformedRequest, "failed to read request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	result, err := h.menuService.IngestBatch(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrMalformedRequest):
			writeError(w, http.StatusBadRequest, errMalformedRequest, err.Error())
		case errors.Is(err, validation.ErrAllItemsInvalid):
			writeError(w, http.StatusBadRequest, errValidationFailed, err.Error())
		default:
			log.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg("Failed to process batch")
			writeError(w, http.StatusInternalServerError, errInternal, "Failed to process batch request")
		}
		return
	}

	writeJSON(w, http.StatusOK, model.BatchResponse{
		Message:        batchSuccessMessage,
		SavedCount:     result.SavedCount,
		TotalRequested: result.TotalRequested,
	})
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, err := h.menuService.ListItems(r.Context(), query.Get("restaurant"), query.Get("source_url"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list menu items")
		writeError(w, http.StatusInternalServerError, errInternal, "Failed to retrieve menu items")
		return
	}

	response := make([]model.MenuItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, item.Response())
	}

	writeJSON(w, http.StatusOK, response)
}
