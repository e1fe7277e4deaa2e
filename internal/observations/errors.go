package observations

import (
	"errors"
	"net/http"

	"github.com/ylk14/SmartPlant-sub000/internal/confidence"
	"github.com/ylk14/SmartPlant-sub000/internal/species"
	"github.com/ylk14/SmartPlant-sub000/pkg/optimistic"
	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

// Domain errors for observation operations.
var (
	ErrNotFound          = errors.New("observation not found")
	ErrValidation        = errors.New("invalid observation")
	ErrInvalidTransition = errors.New("observation is not pending review")
	ErrConflict          = errors.New("observation was modified concurrently")
)

// MapHTTPStatus maps observation, species and coordinator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, species.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation),
		errors.Is(err, species.ErrValidation),
		errors.Is(err, confidence.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict),
		errors.Is(err, species.ErrDuplicate),
		errors.Is(err, optimistic.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, repository.ErrTransient), errors.Is(err, optimistic.ErrTimeout):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
