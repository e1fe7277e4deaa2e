package species

import (
	"errors"
	"net/http"

	"github.com/ylk14/SmartPlant-sub000/pkg/repository"
)

// Domain errors for species operations.
var (
	ErrNotFound   = errors.New("species not found")
	ErrDuplicate  = errors.New("species already exists")
	ErrValidation = errors.New("species id or name required")
)

// MapHTTPStatus maps species domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, repository.ErrTransient) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
