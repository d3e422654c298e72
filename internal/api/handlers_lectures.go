package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/render"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

type lectureJSON struct {
	Name  string `json:"name"`
	Mtime int64  `json:"mtime"`
	Size  int64  `json:"size"`
}

type outlineNodeJSON struct {
	Title     string            `json:"title"`
	Line      int               `json:"line"`
	HasPrompt bool              `json:"has_prompt"`
	Children  []outlineNodeJSON `json:"children,omitempty"`
}

type warningJSON struct {
	Kind string `json:"kind"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

var errLectureNotFound = errors.New("lecture not found")

// loadLecture finds a lecture by name and parses it.
func (s *Server) loadLecture(name string) (*parse.Document, error) {
	lectures, err := scan.ScanLectures(s.cfg.LectureDir)
	if err != nil {
		return nil, err
	}
	l, ok := scan.Find(lectures, name)
	if !ok {
		return nil, errLectureNotFound
	}
	return scan.Open(l, s.cfg.Parser)
}

func lectureError(w http.ResponseWriter, err error) {
	if errors.Is(err, errLectureNotFound) || errors.Is(err, fs.ErrNotExist) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleListLectures(w http.ResponseWriter, r *http.Request) {
	lectures, err := scan.ScanLectures(s.cfg.LectureDir)
	if err != nil {
		jsonError(w, "failed to scan lectures: "+err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]lectureJSON, 0, len(lectures))
	for _, l := range lectures {
		out = append(out, lectureJSON{Name: l.Name, Mtime: l.Mtime, Size: l.Size})
	}
	writeJSON(w, http.StatusOK, map[string]any{"lectures": out})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	doc, err := s.loadLecture(name)
	if err != nil {
		lectureError(w, err)
		return
	}

	sections := make([]outlineNodeJSON, 0, doc.Len())
	for _, sec := range doc.Sections() {
		n := outlineNodeJSON{Title: sec.Title, Line: sec.Line, HasPrompt: sec.Prompt.IsSet()}
		for _, sub := range sec.Children {
			n.Children = append(n.Children, outlineNodeJSON{Title: sub.Title, Line: sub.Line, HasPrompt: sub.Prompt.IsSet()})
		}
		sections = append(sections, n)
	}
	warnings := make([]warningJSON, 0, len(doc.Warnings))
	for _, wn := range doc.Warnings {
		warnings = append(warnings, warningJSON{Kind: wn.Kind, Line: wn.Line, Text: wn.Text})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":     name,
		"sections": sections,
		"warnings": warnings,
	})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	section := r.URL.Query().Get("section")
	subsection := r.URL.Query().Get("subsection")
	if section == "" {
		jsonError(w, "section query parameter is required", http.StatusBadRequest)
		return
	}

	doc, err := s.loadLecture(name)
	if err != nil {
		lectureError(w, err)
		return
	}
	node, ok := doc.Node(section, subsection)
	if !ok {
		jsonError(w, "node not found", http.StatusNotFound)
		return
	}

	html, err := render.HTML(node.Content)
	if err != nil {
		jsonError(w, "failed to render content: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp := map[string]any{
		"lecture":    name,
		"section":    section,
		"subsection": subsection,
		"title":      node.Title,
		"line":       node.Line,
		"content":    node.Content,
		"html":       html,
		"children":   node.ChildTitles(),
	}
	if p, ok := node.Prompt.Get(); ok {
		resp["prompt"] = p
	}
	writeJSON(w, http.StatusOK, resp)
}
