package species

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/pkg/handlers"
	"github.com/ylk14/SmartPlant-sub000/pkg/routes"
)

// Handler provides HTTP endpoints for the species registry.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "species"),
	}
}

// Routes returns the route group definition for species endpoints.
func (h *Handler) Routes(guards routes.Guards) routes.Group {
	return routes.Group{
		Prefix: "/species",
		Guard:  guards.User,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Catalog},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create, Guard: guards.Admin},
			{Method: "POST", Pattern: "/resolve", Handler: h.Resolve, Guard: guards.Admin},
		},
	}
}

// Catalog returns every species ordered by display name.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.sys.Catalog(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Find returns a single species by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: invalid id", ErrValidation))
		return
	}

	s, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Resolve looks up an existing species by id or scientific name.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var ref Ref
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	s, err := h.sys.ResolveExisting(r.Context(), ref)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Create adds a species to the registry.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd NewSpecies
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	s, err := h.sys.ResolveNew(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, s)
}
