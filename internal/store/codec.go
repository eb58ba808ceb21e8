package store

import (
	"database/sql"
	"strings"
	"time"
)

// Column encodings shared by the repositories: timestamps are RFC3339Nano
// UTC, dates are plain YYYY-MM-DD, id lists are semicolon-joined.

const dateLayout = "2006-01-02"

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func fmtDatePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtDate(*t), Valid: true}
}

func parseDatePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ";")
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}
