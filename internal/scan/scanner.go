package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Lecture is one lecture file found in the lecture directory.
type Lecture struct {
	Name  string // file name without extension
	Path  string
	Mtime int64
	Size  int64
}

var lectureExts = map[string]bool{
	".md":  true,
	".qmd": true,
}

// IsLectureFile reports whether name has a lecture extension.
func IsLectureFile(name string) bool {
	return lectureExts[strings.ToLower(filepath.Ext(name))]
}

// EnsureDir creates the lecture directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lecture dir: %w", err)
	}
	return nil
}

// ScanLectures lists the .md and .qmd files directly inside dir, sorted by
// name. A missing directory yields no lectures.
func ScanLectures(dir string) ([]Lecture, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lectures []Lecture
	for _, e := range entries {
		if e.IsDir() || !IsLectureFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // vanished between ReadDir and Info
		}
		lectures = append(lectures, Lecture{
			Name:  strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Path:  filepath.Join(dir, e.Name()),
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	sort.Slice(lectures, func(i, j int) bool {
		if lectures[i].Name != lectures[j].Name {
			return lectures[i].Name < lectures[j].Name
		}
		return lectures[i].Path < lectures[j].Path
	})
	return lectures, nil
}

// Find returns the lecture called name.
func Find(lectures []Lecture, name string) (Lecture, bool) {
	for _, l := range lectures {
		if l.Name == name {
			return l, true
		}
	}
	return Lecture{}, false
}

// Names lists lecture names in catalog order.
func Names(lectures []Lecture) []string {
	out := make([]string, len(lectures))
	for i, l := range lectures {
		out[i] = l.Name
	}
	return out
}
