package httpapi

import (
	"net/http"
	"time"

	backoffice "github.com/omjyotish/backoffice"
	"github.com/omjyotish/backoffice/metrics/export/prometheus"
	"github.com/omjyotish/backoffice/permission"
)

// Config holds HTTP-layer settings.
type Config struct {
	// AdminCreationToken authorizes POST /api/staff without a session
	// when set. Empty disables the header path entirely.
	AdminCreationToken string

	CookieName   string
	CookieSecure bool
}

// Server wires the engine's operations onto routes.
type Server struct {
	engine *backoffice.Engine
	config Config
}

// NewServer creates a [Server] for the given engine.
func NewServer(engine *backoffice.Engine, cfg Config) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Server{
		engine: engine,
		config: cfg,
	}
}

// Handler builds the route table. Content reads and the public
// submission collections are open; everything else runs behind the
// capability guard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSession)

	mux.HandleFunc("POST /api/staff", s.handleCreateStaff)
	mux.Handle("GET /api/staff", s.guard(s.handleListStaff, staffWriteTags()...))
	mux.Handle("PATCH /api/staff/{id}", s.guard(s.handleSetStaffActive, staffWriteTags()...))
	mux.Handle("GET /api/roles", s.guard(s.handleListRoles, staffWriteTags()...))

	mux.HandleFunc("POST /api/upload", s.handleUpload)

	mux.HandleFunc("GET /api/content/{collection}", s.handleContentList)
	mux.HandleFunc("GET /api/content/{collection}/{id}", s.handleContentGet)
	mux.HandleFunc("POST /api/content/{collection}", s.handleContentCreate)
	mux.HandleFunc("PUT /api/content/{collection}/{id}", s.handleContentUpdate)
	mux.HandleFunc("DELETE /api/content/{collection}/{id}", s.handleContentDelete)

	mux.HandleFunc("GET /media/{bucket}/{path...}", s.handleMedia)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(s.engine).Handler())

	return ClientIP(mux)
}

func (s *Server) guard(h http.HandlerFunc, required ...string) http.Handler {
	return Guard(s.engine, s.config.CookieName, required...)(h)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	latency, err := s.engine.Ping(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  "backend unreachable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"redis_latency":   latency.String(),
		"checked_at_unix": time.Now().Unix(),
	})
}

func staffWriteTags() []string {
	return []string{permission.TagAdmin, permission.TagStaffManagement}
}

func contentWriteTags() []string {
	return []string{permission.TagAdmin, permission.TagContentManagement, permission.TagMediaManagement}
}
