// Package module mounts self-contained HTTP modules under single-segment
// path prefixes.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/rackscan/pkg/middleware"
)

// Module serves an inner router beneath a prefix such as "/api". The inner
// router sees paths with the prefix removed.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New creates a Module. It panics when prefix is not a single segment
// starting with "/".
func New(prefix string, router http.Handler) *Module {
	if !validPrefix(prefix) {
		panic(fmt.Sprintf("module: prefix %q must be a single segment such as /api", prefix))
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string { return m.prefix }

// Use appends mw to the module's middleware stack.
func (m *Module) Use(mw middleware.Func) {
	m.middleware.Use(mw)
}

// Handler returns the router wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Serve dispatches req to the module with the prefix stripped.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	rest := strings.TrimPrefix(req.URL.Path, m.prefix)
	if rest == "" {
		rest = "/"
	}

	inner := req.WithContext(req.Context())
	u := *req.URL
	u.Path, u.RawPath = rest, ""
	inner.URL = &u

	m.Handler().ServeHTTP(w, inner)
}

func validPrefix(prefix string) bool {
	rest, ok := strings.CutPrefix(prefix, "/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}
