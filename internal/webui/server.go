package webui

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lwshanbd/fuel-tracker/internal/extraction"
	"github.com/lwshanbd/fuel-tracker/internal/scan"
	"github.com/lwshanbd/fuel-tracker/internal/stats"
	"github.com/lwshanbd/fuel-tracker/internal/vault"
)

// ProviderInfo describes a provider for the credential-management endpoints
type ProviderInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for scans, credentials, and statistics
type Server struct {
	vault       vault.Store
	extractor   extraction.TextExtractor
	interpreter scan.Interpreter
	tracker     *stats.Tracker
	providers   []ProviderInfo
	basicAuth   BasicAuth
	mux         *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(v vault.Store, extractor extraction.TextExtractor, interpreter scan.Interpreter, tracker *stats.Tracker, providers []ProviderInfo, basicAuth BasicAuth) *Server {
	s := &Server{
		vault:       v,
		extractor:   extractor,
		interpreter: interpreter,
		tracker:     tracker,
		providers:   providers,
		basicAuth:   basicAuth,
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			s.setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Fuel Tracker"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/scan", s.requireAuth(s.handleScan))

	s.mux.HandleFunc("GET /api/providers", s.requireAuth(s.handleListProviders))
	s.mux.HandleFunc("PUT /api/providers/{id}/key", s.requireAuth(s.handleSetProviderKey))
	s.mux.HandleFunc("DELETE /api/providers/{id}/key", s.requireAuth(s.handleDeleteProviderKey))

	s.mux.HandleFunc("GET /api/stats", s.requireAuth(s.handleStats))

	s.mux.HandleFunc("GET /index.html", s.requireAuth(s.handleIndex))
	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
