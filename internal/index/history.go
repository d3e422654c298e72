package index

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// tsLayout is fixed width so that timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000Z"

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(tsLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// sqlite CURRENT_TIMESTAMP
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// Record is one persisted chat turn on a page.
type Record struct {
	ID         int64
	SessionID  string
	Lecture    string
	Section    string
	Subsection string
	Role       string
	Content    string
	Timestamp  time.Time
}

// Filter narrows ChatHistory to a page. Empty fields match everything.
type Filter struct {
	Lecture    string
	Section    string
	Subsection string
}

type SessionRow struct {
	SessionID    string
	CreatedAt    time.Time
	Messages     int
	LastActivity time.Time
	Lectures     []string
}

// EnsureSession registers a session id; existing ids are left untouched.
func (d *DB) EnsureSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("empty session id")
	}
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO sessions (session_id, created_at) VALUES (?, ?)",
		sessionID, formatTS(time.Now()),
	)
	return err
}

// SaveChat appends r and returns its row id. A zero Timestamp is set to now.
// The session is registered if it is not known yet.
func (d *DB) SaveChat(r Record) (int64, error) {
	if strings.TrimSpace(r.SessionID) == "" {
		return 0, fmt.Errorf("empty session id")
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO sessions (session_id, created_at) VALUES (?, ?)",
		r.SessionID, formatTS(r.Timestamp),
	); err != nil {
		return 0, err
	}
	res, err := tx.Exec(
		`INSERT INTO chat_history (session_id, lecture, section, subsection, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Lecture, r.Section, r.Subsection, r.Role, r.Content, formatTS(r.Timestamp),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

const recordColumns = "id, session_id, lecture, section, subsection, role, content, timestamp"

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var ts string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Lecture, &r.Section, &r.Subsection, &r.Role, &r.Content, &ts); err != nil {
			return nil, err
		}
		r.Timestamp = parseTS(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ChatHistory returns the records of a session matching f, oldest first.
// Records with equal timestamps keep insertion order.
func (d *DB) ChatHistory(sessionID string, f Filter) ([]Record, error) {
	conditions := []string{"session_id = ?"}
	args := []any{sessionID}
	if f.Lecture != "" {
		conditions = append(conditions, "lecture = ?")
		args = append(args, f.Lecture)
	}
	if f.Section != "" {
		conditions = append(conditions, "section = ?")
		args = append(args, f.Section)
	}
	if f.Subsection != "" {
		conditions = append(conditions, "subsection = ?")
		args = append(args, f.Subsection)
	}

	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM chat_history WHERE "+strings.Join(conditions, " AND ")+" ORDER BY timestamp, id",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetSession returns nil when the session does not exist.
func (d *DB) GetSession(sessionID string) (*SessionRow, error) {
	var (
		s       SessionRow
		created string
		last    sql.NullString
		lecs    sql.NullString
	)
	err := d.db.QueryRow(`
		SELECT s.session_id, s.created_at, COUNT(c.id), MAX(c.timestamp), GROUP_CONCAT(DISTINCT c.lecture)
		FROM sessions s LEFT JOIN chat_history c ON c.session_id = s.session_id
		WHERE s.session_id = ?
		GROUP BY s.session_id`,
		sessionID,
	).Scan(&s.SessionID, &created, &s.Messages, &last, &lecs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fillSession(&s, created, last, lecs)
	return &s, nil
}

// ListSessions returns sessions, most recently active first.
func (d *DB) ListSessions() ([]SessionRow, error) {
	rows, err := d.db.Query(`
		SELECT s.session_id, s.created_at, COUNT(c.id), MAX(c.timestamp), GROUP_CONCAT(DISTINCT c.lecture)
		FROM sessions s LEFT JOIN chat_history c ON c.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY COALESCE(MAX(c.timestamp), s.created_at) DESC, s.session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var (
			s       SessionRow
			created string
			last    sql.NullString
			lecs    sql.NullString
		)
		if err := rows.Scan(&s.SessionID, &created, &s.Messages, &last, &lecs); err != nil {
			return nil, err
		}
		fillSession(&s, created, last, lecs)
		out = append(out, s)
	}
	return out, rows.Err()
}

func fillSession(s *SessionRow, created string, last, lecs sql.NullString) {
	s.CreatedAt = parseTS(created)
	s.LastActivity = s.CreatedAt
	if last.Valid {
		s.LastActivity = parseTS(last.String)
	}
	if lecs.Valid && lecs.String != "" {
		for _, l := range strings.Split(lecs.String, ",") {
			if l != "" {
				s.Lectures = append(s.Lectures, l)
			}
		}
	}
}

func (d *DB) DeleteSession(sessionID string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chat_history WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

// HistoryWindow returns the records of a session around hitID, at most
// context records on each side. A negative hitID returns the whole session.
// startPos is the number of records before the window and totalCount the
// number of records in the session.
func (d *DB) HistoryWindow(sessionID string, hitID int64, context int) (records []Record, hitIdx int, startPos int, totalCount int, err error) {
	totalCount, err = d.count("SELECT COUNT(*) FROM chat_history WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	hitPos := -1
	if hitID >= 0 {
		err = d.db.QueryRow(`
			SELECT pos FROM (
				SELECT id, ROW_NUMBER() OVER (ORDER BY timestamp, id) - 1 AS pos
				FROM chat_history WHERE session_id = ?
			) WHERE id = ?`,
			sessionID, hitID,
		).Scan(&hitPos)
		if err == sql.ErrNoRows {
			hitPos = -1
			err = nil
		} else if err != nil {
			return nil, -1, 0, 0, err
		}
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = max(hitPos-context, 0)
		endPos := min(hitPos+context+1, totalCount)
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM chat_history WHERE session_id = ? ORDER BY timestamp, id LIMIT ? OFFSET ?",
		sessionID, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	records, err = scanRecords(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	hitIdx = -1
	for i, r := range records {
		if r.ID == hitID {
			hitIdx = i
			break
		}
	}
	return records, hitIdx, startPos, totalCount, nil
}
