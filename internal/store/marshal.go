package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// timeLayout is how every time column is stored. Translated plans compare
// these columns against literals in the same layout.
const timeLayout = "2006-01-02 15:04:05"

// normalizeTime parses any common date or date-time spelling as UTC and
// formats it in timeLayout. Empty input stays empty.
func normalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC().Format(timeLayout), nil
}

// marshalNames converts a name list to JSON TEXT for storage. A nil list
// is stored as [].
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(names); err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalNames parses a JSON name list. Empty lists come back nil so
// round-tripped entities compare equal to their fixtures.
func unmarshalNames(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}

func joinTargets(targets []string) string {
	return strings.Join(targets, ",")
}

func splitTargets(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// nullInt stores zero as NULL.
func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
