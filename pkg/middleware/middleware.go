// Package middleware holds the HTTP middleware wrapped around every API
// request: request ids, CORS, access logging, panic recovery and body limits.
package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps an http.Handler.
type Middleware = func(http.Handler) http.Handler

// Stack is an ordered middleware chain. The zero value is empty and ready
// to use. Entries added first run outermost.
type Stack struct {
	entries []Middleware
}

// Use appends mws to the chain.
func (s *Stack) Use(mws ...Middleware) {
	s.entries = append(s.entries, mws...)
}

// Len reports how many middleware are in the chain.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Apply wraps handler with the chain.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(s.entries) {
		handler = mw(handler)
	}
	return handler
}

