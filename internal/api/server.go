package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

// Config holds what the server needs to find and parse lectures.
type Config struct {
	LectureDir string
	Parser     parse.Options
}

// Server is the HTTP API for browsing lectures and studying them with the
// chat provider.
type Server struct {
	router   chi.Router
	db       *index.DB
	provider study.Provider
	log      *logger.Logger
	cfg      Config

	mu       sync.Mutex
	sessions map[sessionKey]*sessionEntry
}

type sessionKey struct {
	id      string
	lecture string
}

// sessionEntry serializes page selection and asking on one study session.
type sessionEntry struct {
	mu   sync.Mutex
	sess *study.Session
}

// NewServer creates and configures the HTTP server.
func NewServer(db *index.DB, provider study.Provider, log *logger.Logger, cfg Config) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{
		db:       db,
		provider: provider,
		log:      log,
		cfg:      cfg,
		sessions: make(map[sessionKey]*sessionEntry),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/lectures", s.handleListLectures)
		r.Get("/lectures/{name}", s.handleOutline)
		r.Get("/lectures/{name}/node", s.handleNode)

		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/{id}/ask", s.handleAsk)
		r.Get("/sessions/{id}/history", s.handleHistory)
		r.Get("/sessions/{id}/followups", s.handleFollowUps)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
