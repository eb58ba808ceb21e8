package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetSecret("Key", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetFloat(t *testing.T) {
	var out bytes.Buffer

	v, err := GetFloat(rdr("12.5\n"), "Rate", 0, &out)
	require.NoError(t, err)
	require.Equal(t, 12.5, v)

	v, err = GetFloat(rdr("\n"), "Rate", 80, &out)
	require.NoError(t, err)
	require.Equal(t, 80.0, v)

	_, err = GetFloat(rdr("lots\n"), "Rate", 0, &out)
	require.Error(t, err)
}

func TestGetDate(t *testing.T) {
	var out bytes.Buffer

	d, err := GetDate(rdr("2026-03-15\n"), "Date", &out)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = GetDate(rdr("\n"), "Date", &out)
	require.NoError(t, err)
	require.Equal(t, time.UTC, d.Location())
	require.Equal(t, 0, d.Hour())

	_, err = GetDate(rdr("15/03/2026\n"), "Date", &out)
	require.Error(t, err)
}

func TestGetBool(t *testing.T) {
	var out bytes.Buffer

	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
	}
	for _, tc := range tests {
		got, err := GetBool(rdr(tc.input), "Sure?", tc.def, &out)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := GetBool(rdr("maybe\n"), "Sure?", false, &out)
	require.Error(t, err)
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc12345", "abd67890", "xyz00000"}

	id, ok := resolveID("xyz", ids)
	require.True(t, ok)
	require.Equal(t, "xyz00000", id)

	// Ambiguous prefix.
	_, ok = resolveID("ab", ids)
	require.False(t, ok)

	// No match.
	_, ok = resolveID("q", ids)
	require.False(t, ok)

	// Full id always resolves.
	id, ok = resolveID("abc12345", ids)
	require.True(t, ok)
	require.Equal(t, "abc12345", id)
}
