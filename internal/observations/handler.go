package observations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/auth"
	"github.com/ylk14/SmartPlant-sub000/pkg/handlers"
	"github.com/ylk14/SmartPlant-sub000/pkg/pagination"
	"github.com/ylk14/SmartPlant-sub000/pkg/routes"
)

// Response decorates an observation with its display confidence.
type Response struct {
	Observation
	ConfidencePercent string          `json:"confidence_percent"`
	ConfidenceBand    confidence.Band `json:"confidence_band"`
}

// NewResponse builds the JSON view of o.
func NewResponse(o Observation) Response {
	return Response{
		Observation:       o,
		ConfidencePercent: confidence.Percent(o.Confidence),
		ConfidenceBand:    confidence.Classify(o.Confidence),
	}
}

// ReviewRequest is the body accepted by approve and reject.
type ReviewRequest struct {
	Notes string `json:"notes"`
}

// IdentifyRequest is the body accepted by identify.
type IdentifyRequest struct {
	species.Ref
	Notes string `json:"notes"`
}

// IdentifyNewRequest is the body accepted by identify-new.
type IdentifyNewRequest struct {
	species.NewSpecies
	Notes string `json:"notes"`
}

// Handler provides HTTP endpoints for observations and the review queue.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "observations"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for observation endpoints.
func (h *Handler) Routes(guards routes.Guards) routes.Group {
	return routes.Group{
		Prefix: "/observations",
		Guard:  guards.User,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Submit},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/decisions", Handler: h.Decisions, Guard: guards.Admin},
		},
	}
}

// ReviewRoutes returns the route group definition for the admin review surface.
func (h *Handler) ReviewRoutes(guards routes.Guards) routes.Group {
	return routes.Group{
		Prefix: "/review",
		Guard:  guards.Admin,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/queue", Handler: h.Queue},
			{Method: "POST", Pattern: "/{id}/approve", Handler: h.Approve},
			{Method: "POST", Pattern: "/{id}/reject", Handler: h.Reject},
			{Method: "POST", Pattern: "/{id}/identify", Handler: h.IdentifyExisting},
			{Method: "POST", Pattern: "/{id}/identify-new", Handler: h.IdentifyNew},
		},
	}
}

// Submit creates an observation for the calling user.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var cmd SubmitCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		h.badRequest(w, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	cmd.UserID = p.ID

	o, err := h.sys.Submit(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, NewResponse(*o))
}

// Find returns a single observation by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	o, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, NewResponse(*o))
}

// Decisions returns the audit trail of an observation.
func (h *Handler) Decisions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	items, err := h.sys.Decisions(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// Queue returns a page of pending observations, newest first.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.ReviewQueue(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, pagination.Map(*result, NewResponse))
}

// Approve verifies a pending observation without changing its species.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	id, adminID, ok := h.reviewInput(w, r, &req)
	if !ok {
		return
	}
	h.respond(w, func() (*Observation, error) {
		return h.sys.Approve(r.Context(), id, adminID, req.Notes)
	})
}

// Reject rejects a pending observation.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	id, adminID, ok := h.reviewInput(w, r, &req)
	if !ok {
		return
	}
	h.respond(w, func() (*Observation, error) {
		return h.sys.Reject(r.Context(), id, adminID, req.Notes)
	})
}

// IdentifyExisting links a pending observation to an existing species and verifies it.
func (h *Handler) IdentifyExisting(w http.ResponseWriter, r *http.Request) {
	var req IdentifyRequest
	id, adminID, ok := h.reviewInput(w, r, &req)
	if !ok {
		return
	}
	h.respond(w, func() (*Observation, error) {
		return h.sys.IdentifyExisting(r.Context(), id, req.Ref, adminID, req.Notes)
	})
}

// IdentifyNew registers a new species, links it and verifies the observation.
func (h *Handler) IdentifyNew(w http.ResponseWriter, r *http.Request) {
	var req IdentifyNewRequest
	id, adminID, ok := h.reviewInput(w, r, &req)
	if !ok {
		return
	}
	h.respond(w, func() (*Observation, error) {
		return h.sys.IdentifyNew(r.Context(), id, req.NewSpecies, adminID, req.Notes)
	})
}

func (h *Handler) respond(w http.ResponseWriter, action func() (*Observation, error)) {
	o, err := action()
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewResponse(*o))
}

// reviewInput parses the path id, the calling admin and an optional JSON body.
func (h *Handler) reviewInput(w http.ResponseWriter, r *http.Request, body any) (uuid.UUID, string, bool) {
	id, ok := h.pathID(w, r)
	if !ok {
		return uuid.Nil, "", false
	}

	if err := json.NewDecoder(r.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, err)
		return uuid.Nil, "", false
	}

	p, _ := auth.FromContext(r.Context())
	return id, p.ID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.badRequest(w, fmt.Errorf("invalid id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) badRequest(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
}
