package routes

import "net/http"

// Guards carries the access checks a handler attaches to its routes.
// Nil guards allow every request through.
type Guards struct {
	User  func(http.Handler) http.Handler
	Admin func(http.Handler) http.Handler
	// IsAdmin lets a handler vary a response for admins on an open route.
	IsAdmin func(r *http.Request) bool
}

// AdminRequest reports whether r comes from an admin. Nil IsAdmin means no.
func (g Guards) AdminRequest(r *http.Request) bool {
	return g.IsAdmin != nil && g.IsAdmin(r)
}
