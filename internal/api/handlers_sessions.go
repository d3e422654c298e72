package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Zuo-Peng/ai-study-companion/internal/index"
	"github.com/Zuo-Peng/ai-study-companion/internal/study"
)

type askRequest struct {
	Lecture    string `json:"lecture"`
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Question   string `json:"question"`
}

type recordJSON struct {
	ID         int64  `json:"id"`
	Lecture    string `json:"lecture"`
	Section    string `json:"section"`
	Subsection string `json:"subsection"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

const maxAskBody = 1 << 20

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := study.NewID()
	if err := s.db.EnsureSession(id); err != nil {
		jsonError(w, "failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// session returns the study session for id on lecture, creating it on
// first use. The stored session row must already exist.
func (s *Server) session(id, lecture string) (*sessionEntry, error) {
	key := sessionKey{id: id, lecture: lecture}
	s.mu.Lock()
	e, ok := s.sessions[key]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	row, err := s.db.GetSession(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errSessionNotFound
	}
	doc, err := s.loadLecture(lecture)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[key]; ok {
		return e, nil
	}
	e = &sessionEntry{sess: study.New(id, lecture, doc, s.provider, s.db, s.log)}
	s.sessions[key] = e
	return e, nil
}

var errSessionNotFound = errors.New("session not found")

func sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errSessionNotFound), errors.Is(err, study.ErrNodeNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		lectureError(w, err)
	}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Lecture == "" || req.Section == "" {
		jsonError(w, "lecture and section are required", http.StatusBadRequest)
		return
	}

	e, err := s.session(id, req.Lecture)
	if err != nil {
		sessionError(w, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.sess.Open(req.Section, req.Subsection); err != nil {
		sessionError(w, err)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = e.sess.InitialPrompt()
	}
	if strings.TrimSpace(question) == "" {
		jsonError(w, study.ErrEmptyQuestion.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	answer, err := e.sess.Ask(r.Context(), question, func(delta string) {
		writeEvent(w, "", map[string]string{"delta": delta})
		if flusher != nil {
			flusher.Flush()
		}
	})

	done := map[string]any{"length": len([]rune(answer))}
	if err != nil {
		s.log.Warn("ask failed", "session", id, "lecture", req.Lecture, "error", err)
		done["error"] = err.Error()
	}
	writeEvent(w, "done", done)
	if flusher != nil {
		flusher.Flush()
	}
}

// writeEvent writes one server-sent event with a JSON payload.
func writeEvent(w http.ResponseWriter, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	row, err := s.db.GetSession(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if row == nil {
		jsonError(w, errSessionNotFound.Error(), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	records, err := s.db.ChatHistory(id, index.Filter{
		Lecture:    q.Get("lecture"),
		Section:    q.Get("section"),
		Subsection: q.Get("subsection"),
	})
	if err != nil {
		jsonError(w, "failed to load history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]recordJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, recordJSON{
			ID:         rec.ID,
			Lecture:    rec.Lecture,
			Section:    rec.Section,
			Subsection: rec.Subsection,
			Role:       rec.Role,
			Content:    rec.Content,
			Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": out})
}

func (s *Server) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	lecture, section := q.Get("lecture"), q.Get("section")
	if lecture == "" || section == "" {
		jsonError(w, "lecture and section query parameters are required", http.StatusBadRequest)
		return
	}

	e, err := s.session(id, lecture)
	if err != nil {
		sessionError(w, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.sess.Open(section, q.Get("subsection")); err != nil {
		sessionError(w, err)
		return
	}
	var questions []string
	if q.Get("refresh") == "1" {
		questions = e.sess.RefreshFollowUps(r.Context())
	} else {
		questions = e.sess.FollowUps(r.Context())
	}
	if questions == nil {
		questions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}
