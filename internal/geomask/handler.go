package geomask

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/ylk14/SmartPlant-sub000/internal/observations"
	"github.com/ylk14/SmartPlant-sub000/pkg/auth"
	"github.com/ylk14/SmartPlant-sub000/pkg/handlers"
	"github.com/ylk14/SmartPlant-sub000/pkg/routes"
)

// HeaderIdempotencyKey lets clients retry a toggle without toggling twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// HandlerConfig tunes the geomask HTTP surface.
type HandlerConfig struct {
	IdempotencyTTL time.Duration
}

// Handler provides HTTP endpoints for the heatmap and mask toggles.
type Handler struct {
	sys     System
	logger  *slog.Logger
	replays *gocache.Cache
}

// NewHandler creates a Handler with the given system, logger, and config.
func NewHandler(sys System, logger *slog.Logger, cfg HandlerConfig) *Handler {
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Handler{
		sys:     sys,
		logger:  logger.With("handler", "geomask"),
		replays: gocache.New(ttl, 2*ttl),
	}
}

// Routes returns the route group definition for heatmap endpoints.
// Reading the heatmap is public; include_masked is honoured for admins only.
func (h *Handler) Routes(guards routes.Guards) routes.Group {
	return routes.Group{
		Prefix: "/heatmap",
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					h.Heatmap(w, r, guards.AdminRequest(r))
				},
			},
			{Method: "POST", Pattern: "/{id}/toggle-mask", Handler: h.ToggleMask, Guard: guards.Admin},
		},
	}
}

// Heatmap returns weighted points for every visible located observation.
// Non-admin callers only see verified observations.
func (h *Handler) Heatmap(w http.ResponseWriter, r *http.Request, admin bool) {
	var opts Options
	if !admin {
		opts.Status = observations.StatusVerified
	}

	q := r.URL.Query()
	if v := q.Get("include_masked"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("%w: include_masked: %w", observations.ErrValidation, err))
			return
		}
		if include && !admin {
			handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
			return
		}
		opts.IncludeMasked = include
	}

	if v := q.Get("status"); v != "" {
		status := observations.Status(v)
		if !status.Valid() {
			handlers.RespondError(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("%w: unknown status %q", observations.ErrValidation, v))
			return
		}
		if status != observations.StatusVerified && !admin {
			handlers.RespondError(w, h.logger, http.StatusForbidden, auth.ErrForbidden)
			return
		}
		opts.Status = status
	}

	points, err := h.sys.HeatmapPoints(r.Context(), opts)
	if err != nil {
		handlers.RespondError(w, h.logger, observations.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, points)
}

// ToggleMask flips the visibility of one observation. Requests repeating an
// Idempotency-Key replay the first successful response.
func (h *Handler) ToggleMask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest,
			fmt.Errorf("%w: invalid id: %w", observations.ErrValidation, err))
		return
	}

	p, _ := auth.FromContext(r.Context())

	key := r.Header.Get(HeaderIdempotencyKey)
	if key != "" {
		key = p.ID + ":" + id.String() + ":" + key
		if cached, ok := h.replays.Get(key); ok {
			h.logger.Debug("replaying toggle", "id", id, "admin_id", p.ID)
			handlers.RespondJSON(w, http.StatusOK, cached)
			return
		}
	}

	result, err := h.sys.ToggleMask(r.Context(), id, p.ID)
	if err != nil {
		handlers.RespondError(w, h.logger, observations.MapHTTPStatus(err), err)
		return
	}

	if key != "" {
		h.replays.SetDefault(key, *result)
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
