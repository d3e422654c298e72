package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zuo-Peng/ai-study-companion/internal/index"
)

const lecture = "## 基础\n概览\n### JVM\nJVM 是虚拟机\n### GC\n垃圾回收机制\n**AI提示词：**\n```\n解释分代回收\n```\n## 集合\nList and Map\n"

func setupDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "asc.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "java.md"), []byte(lecture), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := index.IndexAll(db, dir, index.Options{}); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []index.Record{
		{SessionID: "s1", Lecture: "java", Section: "基础", Subsection: "GC", Role: "user", Content: "what is GC"},
		{SessionID: "s1", Lecture: "java", Section: "基础", Subsection: "GC", Role: "assistant", Content: "GC reclaims memory"},
		{SessionID: "s1", Lecture: "java", Section: "集合", Role: "user", Content: "GC and collections"},
		{SessionID: "s2", Lecture: "java", Section: "基础", Subsection: "JVM", Role: "user", Content: "解释一下字节码"},
	} {
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.SaveChat(r); err != nil {
			t.Fatal(err)
		}
	}
	return db
}

func TestSearchNodes(t *testing.T) {
	db := setupDB(t)

	tests := []struct {
		name      string
		opts      Options
		wantTitle []string
	}{
		{"fts", Options{Query: "JVM"}, []string{"JVM"}},
		{"cjk content", Options{Query: "回收"}, []string{"GC"}},
		{"cjk title", Options{Query: "集合"}, []string{"集合"}},
		{"lecture filter", Options{Query: "JVM", Lecture: "go"}, nil},
		{"no match", Options{Query: "kubernetes"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Search(db, tt.opts)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != len(tt.wantTitle) {
				t.Fatalf("expected %d results, got %+v", len(tt.wantTitle), got)
			}
			for i, r := range got {
				if r.Title != tt.wantTitle[i] || r.Kind != KindNode || r.Lecture != "java" {
					t.Errorf("result %d: %+v", i, r)
				}
			}
		})
	}
}

func TestSearchNodes_Snippet(t *testing.T) {
	db := setupDB(t)
	got, err := Search(db, Options{Query: "分代"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected prompt hit, got %+v", got)
	}
	if got[0].Snippet != "解释>>>分代<<<回收" {
		t.Errorf("snippet=%q", got[0].Snippet)
	}
	if got[0].Line != 5 {
		t.Errorf("line=%d", got[0].Line)
	}
}

func TestSearchHistory(t *testing.T) {
	db := setupDB(t)

	got, err := Search(db, Options{Query: "GC", History: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected one hit per page, got %+v", got)
	}
	for _, r := range got {
		if r.Kind != KindChat || r.SessionID != "s1" || r.RecordID == 0 {
			t.Errorf("unexpected result %+v", r)
		}
	}

	got, err = Search(db, Options{Query: "GC", History: true, Role: "assistant"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Role != "assistant" || got[0].Title != "GC" {
		t.Fatalf("role filter: %+v", got)
	}

	got, err = Search(db, Options{Query: "字节码", History: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].SessionID != "s2" || got[0].Snippet != "解释一下>>>字节码<<<" {
		t.Fatalf("cjk history: %+v", got)
	}

	got, err = Search(db, Options{Query: "GC", History: true, SessionID: "s2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("session filter: %+v", got)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	db := setupDB(t)
	if _, err := Search(db, Options{Query: "  "}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMakeSnippet(t *testing.T) {
	tests := []struct {
		text, query string
		ctx         int
		want        string
	}{
		{"垃圾回收机制", "回收", 1, "...圾>>>回收<<<机..."},
		{"Hello World", "world", 20, "Hello >>>World<<<"},
		{"line one\nline two", "two", 20, "line one line >>>two<<<"},
		{"abcdef", "zz", 2, "abcd..."},
	}
	for _, tt := range tests {
		if got := makeSnippet(tt.text, tt.query, tt.ctx); got != tt.want {
			t.Errorf("makeSnippet(%q, %q) = %q, want %q", tt.text, tt.query, got, tt.want)
		}
	}
}

func TestContainsCJK(t *testing.T) {
	if !containsCJK("java 集合") || containsCJK("java list") {
		t.Fatal("containsCJK mismatch")
	}
}
