package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	// Guard, when set, wraps Handler (e.g. an authorization check).
	Guard func(http.Handler) http.Handler
}
