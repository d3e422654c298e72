package index

import (
	"strings"
	"testing"
	"time"
)

func TestSaveChatAndHistory(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{SessionID: "s1", Lecture: "java", Section: "基础", Subsection: "JVM", Role: "user", Content: "q1", Timestamp: base},
		{SessionID: "s1", Lecture: "java", Section: "基础", Subsection: "JVM", Role: "assistant", Content: "a1", Timestamp: base},
		{SessionID: "s1", Lecture: "java", Section: "基础", Subsection: "GC", Role: "user", Content: "q2", Timestamp: base.Add(time.Second)},
		{SessionID: "s2", Lecture: "go", Section: "并发", Role: "user", Content: "other", Timestamp: base},
	}
	for _, r := range records {
		if _, err := db.SaveChat(r); err != nil {
			t.Fatalf("SaveChat: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"whole session", Filter{}, "q1,a1,q2"},
		{"section", Filter{Section: "基础"}, "q1,a1,q2"},
		{"page", Filter{Lecture: "java", Section: "基础", Subsection: "JVM"}, "q1,a1"},
		{"other lecture", Filter{Lecture: "go"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ChatHistory("s1", tt.filter)
			if err != nil {
				t.Fatalf("ChatHistory: %v", err)
			}
			var contents []string
			for _, r := range got {
				contents = append(contents, r.Content)
			}
			if strings.Join(contents, ",") != tt.want {
				t.Fatalf("got %q, want %q", contents, tt.want)
			}
		})
	}

	got, _ := db.ChatHistory("s1", Filter{Subsection: "JVM"})
	if !got[0].Timestamp.Equal(base) || got[0].Role != "user" || got[0].Lecture != "java" {
		t.Errorf("unexpected record: %+v", got[0])
	}

	n, _ := db.SessionCount()
	if n != 2 {
		t.Errorf("SaveChat should register sessions, got %d", n)
	}
}

func TestSaveChat_DefaultsTimestamp(t *testing.T) {
	db := openTestDB(t)
	before := time.Now().Add(-time.Second)
	if _, err := db.SaveChat(Record{SessionID: "s", Role: "user", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.ChatHistory("s", Filter{})
	if err != nil || len(got) != 1 {
		t.Fatalf("ChatHistory: %v %v", got, err)
	}
	if got[0].Timestamp.Before(before) {
		t.Errorf("timestamp not set: %v", got[0].Timestamp)
	}
}

func TestSaveChat_RejectsEmptySession(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SaveChat(Record{Role: "user", Content: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if err := db.EnsureSession(" "); err == nil {
		t.Fatal("expected error")
	}
}

func TestSessions(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := db.EnsureSession("empty"); err != nil {
		t.Fatal(err)
	}
	if err := db.EnsureSession("empty"); err != nil {
		t.Fatalf("EnsureSession twice: %v", err)
	}
	db.SaveChat(Record{SessionID: "old", Lecture: "java", Role: "user", Content: "a", Timestamp: base})
	db.SaveChat(Record{SessionID: "new", Lecture: "go", Role: "user", Content: "b", Timestamp: base.Add(time.Hour)})
	db.SaveChat(Record{SessionID: "new", Lecture: "java", Role: "assistant", Content: "c", Timestamp: base.Add(2 * time.Hour)})

	s, err := db.GetSession("new")
	if err != nil || s == nil {
		t.Fatalf("GetSession: %v %v", s, err)
	}
	if s.Messages != 2 || !s.LastActivity.Equal(base.Add(2*time.Hour)) || len(s.Lectures) != 2 {
		t.Errorf("unexpected session: %+v", s)
	}
	if s, err := db.GetSession("missing"); err != nil || s != nil {
		t.Errorf("expected nil for missing session, got %v %v", s, err)
	}

	list, err := db.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	// "empty" was created now, after the fixed 2024 timestamps
	if list[0].SessionID != "empty" || list[1].SessionID != "new" || list[2].SessionID != "old" {
		t.Errorf("unexpected order: %s %s %s", list[0].SessionID, list[1].SessionID, list[2].SessionID)
	}
	if list[0].Messages != 0 {
		t.Errorf("empty session has %d messages", list[0].Messages)
	}

	if err := db.DeleteSession("new"); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.MessageCount(); n != 1 {
		t.Errorf("expected 1 message after delete, got %d", n)
	}
	if n, _ := db.SessionCount(); n != 2 {
		t.Errorf("expected 2 sessions after delete, got %d", n)
	}
}

func TestHistoryWindow(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 10; i++ {
		id, err := db.SaveChat(Record{SessionID: "s", Role: "user", Content: string(rune('a' + i)), Timestamp: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	recs, hitIdx, start, total, err := db.HistoryWindow("s", ids[5], 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 10 || start != 3 || len(recs) != 5 || hitIdx != 2 || recs[hitIdx].Content != "f" {
		t.Fatalf("window: total=%d start=%d len=%d hit=%d", total, start, len(recs), hitIdx)
	}

	recs, hitIdx, start, _, err = db.HistoryWindow("s", ids[0], 2)
	if err != nil {
		t.Fatal(err)
	}
	if start != 0 || len(recs) != 3 || hitIdx != 0 {
		t.Fatalf("window at start: start=%d len=%d hit=%d", start, len(recs), hitIdx)
	}

	recs, hitIdx, _, _, err = db.HistoryWindow("s", -1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 10 || hitIdx != -1 {
		t.Fatalf("full window: len=%d hit=%d", len(recs), hitIdx)
	}
}
