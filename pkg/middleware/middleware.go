// Package middleware provides the HTTP middleware used by rackscan modules:
// request logging, CORS, and bearer-token authentication.
package middleware

import (
	"net/http"
	"slices"
)

// Func wraps a handler.
type Func = func(http.Handler) http.Handler

// System is an ordered middleware stack. The first Func passed to Use is
// the outermost wrapper.
type System interface {
	Use(mw Func)
	Apply(handler http.Handler) http.Handler
}

type stack []Func

// New returns an empty stack.
func New() System {
	return &stack{}
}

func (s *stack) Use(mw Func) {
	*s = append(*s, mw)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		handler = mw(handler)
	}
	return handler
}
