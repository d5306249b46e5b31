package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// RouteRegistry manages HTTP route registration using Go 1.22+ ServeMux patterns.
type RouteRegistry struct {
	patterns []string
	mux      *http.ServeMux
}

// NewRouteRegistry creates a new RouteRegistry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{mux: http.NewServeMux()}
}

// RegisterAPIRoutes registers all API routes with their handlers.
func (r *RouteRegistry) RegisterAPIRoutes(healthHandler *HealthHandler, challengeHandler *ChallengeHandler) {
	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"GET /health", healthHandler.GetHealth},
		{"GET /challenges/random", challengeHandler.GetRandomChallenge},
		{"GET /languages", challengeHandler.ListLanguages},
		{"POST /challenges/import", challengeHandler.ImportChallenges},
	}
	for _, route := range routes {
		if err := r.RegisterRoute(route.pattern, route.handler); err != nil {
			panic(fmt.Errorf("failed to register route %q: %w", route.pattern, err))
		}
	}
}

// RegisterRoute registers a single route with the given pattern and handler.
func (r *RouteRegistry) RegisterRoute(pattern string, handler http.Handler) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	if r.HasRoute(pattern) {
		return fmt.Errorf("route conflict detected: pattern '%s' is already registered", pattern)
	}
	r.mux.Handle(pattern, handler)
	r.patterns = append(r.patterns, pattern)
	return nil
}

// BuildServeMux returns the configured ServeMux.
func (r *RouteRegistry) BuildServeMux() *http.ServeMux {
	return r.mux
}

// HasRoute checks if a route pattern is registered.
func (r *RouteRegistry) HasRoute(pattern string) bool {
	return slices.Contains(r.patterns, pattern)
}

// RouteCount returns the number of registered routes.
func (r *RouteRegistry) RouteCount() int {
	return len(r.patterns)
}

//nolint:gochecknoglobals // fixed lookup table
var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	http.MethodPatch: true, http.MethodHead: true, http.MethodOptions: true,
}

// validatePattern requires the "METHOD /path" form.
func validatePattern(pattern string) error {
	method, path, found := strings.Cut(strings.TrimSpace(pattern), " ")
	if !found {
		return fmt.Errorf("invalid route pattern '%s': must have format 'METHOD /path' (e.g., 'GET /users')", pattern)
	}
	if !validMethods[method] {
		return fmt.Errorf("invalid HTTP method '%s' in pattern '%s'", method, pattern)
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path '%s' in pattern '%s' must start with '/'", path, pattern)
	}
	if strings.Contains(path, "//") {
		return fmt.Errorf("path '%s' in pattern '%s' contains double slashes", path, pattern)
	}
	return nil
}
