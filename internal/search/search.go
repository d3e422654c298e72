package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/ai-study-companion/internal/index"
)

const (
	KindNode = "node"
	KindChat = "chat"
)

// Result is one search hit: an indexed lecture node, or a chat record when
// Kind is KindChat.
type Result struct {
	Kind       string
	Lecture    string
	Section    string
	Subsection string
	Title      string
	Line       int
	SessionID  string
	RecordID   int64
	Role       string
	Timestamp  string
	Snippet    string
	Rank       float64
}

type Options struct {
	Query     string
	History   bool   // search chat records instead of lecture nodes
	Lecture   string // "" = all
	SessionID string // history only
	Role      string // history only: "", "user", "assistant"
	Since     string // history only, e.g. "2024-01-01"
	Limit     int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
// unicode61 does not segment Han text, so such queries fall back to LIKE.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		idx = strings.Index(text, query)
	}
	runes := []rune(text)
	if idx < 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))

	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	if !opts.History {
		if containsCJK(opts.Query) {
			return searchNodesLike(db, opts)
		}
		return searchNodesFTS(db, opts)
	}

	// fetch more before dedup so enough pages remain
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var (
		results []Result
		err     error
	)
	if containsCJK(opts.Query) {
		results, err = searchChatLike(db, opts)
	} else {
		results, err = searchChatFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// keep only the best-ranked record per session page
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		key := r.SessionID + "\x00" + r.Lecture + "\x00" + r.Section + "\x00" + r.Subsection
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func nodeFilters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Lecture != "" {
		conditions = append(conditions, "n.lecture = ?")
		args = append(args, opts.Lecture)
	}
	return conditions, args
}

func searchNodesFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"nodes_fts MATCH ?"}
	args := []any{opts.Query}
	c, a := nodeFilters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			n.lecture, n.section, n.subsection, n.title, n.line,
			snippet(nodes_fts, 1, '>>>', '<<<', '...', 40) AS snip,
			bm25(nodes_fts, 5.0, 1.0, 2.0) AS rank
		FROM nodes_fts
		JOIN nodes n ON nodes_fts.rowid = n.id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Kind: KindNode}
		if err := rows.Scan(&r.Lecture, &r.Section, &r.Subsection, &r.Title, &r.Line, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchNodesLike(db *index.DB, opts Options) ([]Result, error) {
	pattern := "%" + opts.Query + "%"
	conditions := []string{"(n.title LIKE ? OR n.content LIKE ? OR n.prompt LIKE ?)"}
	args := []any{pattern, pattern, pattern}
	c, a := nodeFilters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT n.lecture, n.section, n.subsection, n.title, n.line, n.content, n.prompt
		FROM nodes n
		WHERE %s
		ORDER BY n.lecture, n.position
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Kind: KindNode}
		var content, prompt string
		if err := rows.Scan(&r.Lecture, &r.Section, &r.Subsection, &r.Title, &r.Line, &content, &prompt); err != nil {
			return nil, err
		}
		text := content
		if !strings.Contains(content, opts.Query) && strings.Contains(prompt, opts.Query) {
			text = prompt
		}
		r.Snippet = makeSnippet(text, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func chatFilters(opts Options) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Lecture != "" {
		conditions = append(conditions, "c.lecture = ?")
		args = append(args, opts.Lecture)
	}
	if opts.SessionID != "" {
		conditions = append(conditions, "c.session_id = ?")
		args = append(args, opts.SessionID)
	}
	if opts.Role != "" {
		conditions = append(conditions, "c.role = ?")
		args = append(args, opts.Role)
	}
	if opts.Since != "" {
		conditions = append(conditions, "c.timestamp >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchChatFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"chat_fts MATCH ?"}
	args := []any{opts.Query}
	c, a := chatFilters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			c.id, c.session_id, c.lecture, c.section, c.subsection, c.role, c.timestamp,
			snippet(chat_fts, 0, '>>>', '<<<', '...', 40) AS snip,
			bm25(chat_fts) AS rank
		FROM chat_fts
		JOIN chat_history c ON chat_fts.rowid = c.id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanChatResults(rows)
}

func searchChatLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"c.content LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	c, a := chatFilters(opts)
	conditions = append(conditions, c...)
	args = append(args, a...)

	query := fmt.Sprintf(`
		SELECT
			c.id, c.session_id, c.lecture, c.section, c.subsection, c.role, c.timestamp,
			c.content, 0.0
		FROM chat_history c
		WHERE %s
		ORDER BY c.timestamp DESC, c.id DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	results, err := scanChatResults(rows)
	for i := range results {
		results[i].Snippet = makeSnippet(results[i].Snippet, opts.Query, 30)
	}
	return results, err
}

func scanChatResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		r := Result{Kind: KindChat}
		if err := rows.Scan(
			&r.RecordID, &r.SessionID, &r.Lecture, &r.Section, &r.Subsection,
			&r.Role, &r.Timestamp, &r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		r.Title = r.Subsection
		if r.Title == "" {
			r.Title = r.Section
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
