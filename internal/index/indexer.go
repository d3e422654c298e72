package index

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Zuo-Peng/ai-study-companion/internal/logger"
	"github.com/Zuo-Peng/ai-study-companion/internal/parse"
	"github.com/Zuo-Peng/ai-study-companion/internal/scan"
)

type Stats struct {
	Scanned  int
	Updated  int
	Skipped  int
	Pruned   int
	Errors   int
	Warnings int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d warnings=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors, s.Warnings)
}

type Options struct {
	Parser parse.Options
	Force  bool // re-index unchanged lectures too
	Log    *logger.Logger
}

// IndexAll brings the lecture index in line with the lecture directory:
// new or changed files are parsed and their nodes replaced, unchanged files
// are skipped, and lectures whose file disappeared are pruned.
func IndexAll(db *DB, dir string, opts Options) (Stats, error) {
	var stats Stats
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	lectures, err := scan.ScanLectures(dir)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(lectures)

	p := parse.New(opts.Parser)
	seen := make(map[string]struct{})

	for _, l := range lectures {
		seen[l.Name] = struct{}{}

		if !opts.Force {
			needs, err := needsUpdate(db, l)
			if err != nil {
				stats.Errors++
				log.Warn("lecture info lookup failed", "lecture", l.Name, "error", err)
				continue
			}
			if !needs {
				stats.Skipped++
				continue
			}
		}

		doc, err := p.ParseFile(l.Path)
		if err != nil {
			stats.Errors++
			log.Warn("parse lecture failed", "path", l.Path, "error", err)
			continue
		}
		for _, w := range doc.Warnings {
			stats.Warnings++
			log.Warn("lecture structure", "lecture", l.Name, "kind", w.Kind, "line", w.Line, "text", w.Text)
		}

		if err := IndexLecture(db, l, doc); err != nil {
			stats.Errors++
			log.Warn("index lecture failed", "path", l.Path, "error", err)
			continue
		}
		stats.Updated++
	}

	pruned, err := pruneLectures(db, seen)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	log.Info("index finished", "dir", dir, "stats", stats.String())
	return stats, nil
}

type LectureInfo struct {
	Path      string
	Mtime     int64
	Size      int64
	IndexedAt time.Time
}

// GetLectureInfo returns nil when the lecture has never been indexed.
func (d *DB) GetLectureInfo(name string) (*LectureInfo, error) {
	var (
		info LectureInfo
		at   string
	)
	err := d.db.QueryRow(
		"SELECT path, mtime, size, indexed_at FROM lectures WHERE name = ?",
		name,
	).Scan(&info.Path, &info.Mtime, &info.Size, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info.IndexedAt = parseTS(at)
	return &info, nil
}

func (d *DB) AllLectureNames() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT name FROM lectures")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names[n] = struct{}{}
	}
	return names, rows.Err()
}

func (d *DB) DeleteLecture(name string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nodes WHERE lecture = ?", name); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM lectures WHERE name = ?", name); err != nil {
		return err
	}
	return tx.Commit()
}

func needsUpdate(db *DB, l scan.Lecture) (bool, error) {
	info, err := db.GetLectureInfo(l.Name)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil
	}
	return info.Path != l.Path || info.Mtime != l.Mtime || info.Size != l.Size, nil
}

// IndexLecture replaces the stored nodes of l with those of doc. Sections
// are stored with an empty subsection.
func IndexLecture(db *DB, l scan.Lecture, doc *parse.Document) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nodes WHERE lecture = ?", l.Name); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO lectures (name, path, mtime, size, indexed_at) VALUES (?, ?, ?, ?, ?)`,
		l.Name, l.Path, l.Mtime, l.Size, formatTS(time.Now()),
	); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO nodes (lecture, position, section, subsection, title, content, prompt, has_prompt, line)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	pos := 0
	insert := func(section, subsection string, n *parse.ContentNode) error {
		prompt, ok := n.Prompt.Get()
		_, err := stmt.Exec(l.Name, pos, section, subsection, n.Title, n.Content, prompt, ok, n.Line)
		pos++
		return err
	}
	for _, sec := range doc.Sections() {
		if err := insert(sec.Title, "", sec); err != nil {
			return err
		}
		for _, sub := range sec.Children {
			if err := insert(sec.Title, sub.Title, sub); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func pruneLectures(db *DB, seen map[string]struct{}) (int, error) {
	all, err := db.AllLectureNames()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for name := range all {
		if _, ok := seen[name]; !ok {
			if err := db.DeleteLecture(name); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

type NodeRow struct {
	ID         int64
	Lecture    string
	Position   int
	Section    string
	Subsection string
	Title      string
	Content    string
	Prompt     string
	HasPrompt  bool
	Line       int
}

const nodeColumns = "id, lecture, position, section, subsection, title, content, prompt, has_prompt, line"

func scanNode(sc interface{ Scan(...any) error }) (NodeRow, error) {
	var n NodeRow
	err := sc.Scan(&n.ID, &n.Lecture, &n.Position, &n.Section, &n.Subsection, &n.Title, &n.Content, &n.Prompt, &n.HasPrompt, &n.Line)
	return n, err
}

// GetNodes returns the indexed nodes of a lecture in document order.
func (d *DB) GetNodes(lecture string) ([]NodeRow, error) {
	rows, err := d.db.Query("SELECT "+nodeColumns+" FROM nodes WHERE lecture = ? ORDER BY position", lecture)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NodeRow
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNode returns nil when the page is not indexed.
func (d *DB) GetNode(lecture, section, subsection string) (*NodeRow, error) {
	n, err := scanNode(d.db.QueryRow(
		"SELECT "+nodeColumns+" FROM nodes WHERE lecture = ? AND section = ? AND subsection = ?",
		lecture, section, subsection,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
