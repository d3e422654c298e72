package index

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "sub", "asc.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenDB_SchemaVersion(t *testing.T) {
	db := openTestDB(t)
	ver, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if ver != schemaVersion {
		t.Fatalf("expected %q, got %q", schemaVersion, ver)
	}
}

func TestOpenDB_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asc.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveChat(Record{SessionID: "s1", Role: "user", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	n, err := db.MessageCount()
	if err != nil || n != 1 {
		t.Fatalf("expected 1 message after reopen, got %d, %v", n, err)
	}
}

func TestSchemaVersionBumpResetsLectures(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Raw().Exec("INSERT INTO lectures (name, path, mtime, size) VALUES ('a', '/a.md', 5, 6)"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Raw().Exec("UPDATE meta SET value = 'old' WHERE key = 'schema_version'"); err != nil {
		t.Fatal(err)
	}
	if err := db.migrateSchemaVersion(); err != nil {
		t.Fatal(err)
	}
	info, err := db.GetLectureInfo("a")
	if err != nil || info == nil {
		t.Fatalf("GetLectureInfo: %v, %v", info, err)
	}
	if info.Mtime != 0 || info.Size != 0 {
		t.Errorf("expected reset mtime/size, got %+v", info)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 123456000, time.FixedZone("CST", 8*3600))
	got := parseTS(formatTS(ts))
	if !got.Equal(ts) {
		t.Fatalf("got %v, want %v", got, ts)
	}
	if !parseTS("2024-03-01 08:30:00").Equal(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("sqlite CURRENT_TIMESTAMP format not parsed")
	}
	if !parseTS("garbage").IsZero() {
		t.Errorf("expected zero time for garbage")
	}
}
