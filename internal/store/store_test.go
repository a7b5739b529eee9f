package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"meta", "tag", "annotation", "illust", "album", "illust_source_tag", "file_record", "source_image"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

// Every table and column a dialect can reference must exist.
func TestSchema_DialectColumns(t *testing.T) {
	s := createTestStore(t)

	expected := map[string][]string{
		"illust":                     {"id", "score", "favorite", "description", "partition_time", "create_time", "update_time", "order_time", "file_id", "source_image_id"},
		"album":                      {"id", "title", "description", "score", "favorite", "cached_count", "create_time", "update_time"},
		"meta":                       {"id", "name", "type", "score", "favorite", "cached_count", "create_time", "update_time"},
		"annotation":                 {"id", "name", "target", "can_be_exported", "create_time", "update_time"},
		"file_record":                {"id", "extension"},
		"source_image":               {"id", "site", "source_id"},
		"illust_source_tag":          {"illust_id", "name"},
		"illust_author_relation":     {"illust_id", "author_id"},
		"illust_topic_relation":      {"illust_id", "topic_id"},
		"illust_tag_relation":        {"illust_id", "tag_id"},
		"album_author_relation":      {"album_id", "author_id"},
		"album_topic_relation":       {"album_id", "topic_id"},
		"album_tag_relation":         {"album_id", "tag_id"},
		"author_annotation_relation": {"author_id", "annotation_id"},
		"topic_annotation_relation":  {"topic_id", "annotation_id"},
		"tag_annotation_relation":    {"tag_id", "annotation_id"},
		"meta_annotation_relation":   {"meta_id", "annotation_id"},
	}
	for table, want := range expected {
		columns := getTableColumns(t, s.db, table)
		for _, col := range want {
			if !slices.Contains(columns, col) {
				t.Errorf("%s missing column %q", table, col)
			}
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	if !slices.Contains(getTableIndexes(t, s.db, "illust_source_tag"), "idx_illust_source_tag_name") {
		t.Error("illust_source_tag missing index idx_illust_source_tag_name")
	}
	if !slices.Contains(getTableIndexes(t, s.db, "illust"), "idx_illust_order_time") {
		t.Error("illust missing index idx_illust_order_time")
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
