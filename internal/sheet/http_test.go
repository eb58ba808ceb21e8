package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avolkovs/tallybook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	token string
	err   error
}

func (c staticCreds) AccessToken() (string, error) {
	return c.token, c.err
}

func testGateway(t *testing.T, handler http.Handler) (*HTTPGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	g := NewHTTPGateway(srv.URL, srv.Client(), staticCreds{token: "tok"}, logger)
	g.backoffBase = time.Millisecond
	return g, srv
}

func TestHTTPGateway_AttachesBearerToken(t *testing.T) {
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"documents": []documentInfo{}})
	}))

	_, err := g.FindDocument(context.Background(), "Tallybook Data")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPGateway_NoTokenFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int64
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	g.creds = staticCreds{err: errors.New("no token held")}

	_, err := g.FindDocument(context.Background(), "x")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(0), hits.Load())
}

func TestFindDocument(t *testing.T) {
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "Tallybook Data", r.URL.Query().Get("name"))
		_ = json.NewEncoder(w).Encode(map[string]any{"documents": []documentInfo{
			{ID: "other", Name: "Something Else"},
			{ID: "doc-42", Name: "Tallybook Data"},
		}})
	}))

	h, err := g.FindDocument(context.Background(), "Tallybook Data")
	require.NoError(t, err)
	assert.Equal(t, Handle("doc-42"), h)
}

func TestCreateDocument(t *testing.T) {
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Tallybook Data", body["name"])
		_ = json.NewEncoder(w).Encode(documentInfo{ID: "doc-1", Name: body["name"]})
	}))

	h, err := g.CreateDocument(context.Background(), "Tallybook Data")
	require.NoError(t, err)
	assert.Equal(t, Handle("doc-1"), h)
}

func TestDo_AuthFailureIsNotRetried(t *testing.T) {
	var hits atomic.Int64
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := g.FindDocument(context.Background(), "x")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(1), hits.Load())
}

func TestDo_TransientFailuresRetried(t *testing.T) {
	var hits atomic.Int64
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"documents": []documentInfo{{ID: "d", Name: "x"}}})
	}))

	h, err := g.FindDocument(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, Handle("d"), h)
	assert.Equal(t, int64(3), hits.Load())
}

func TestDo_RetriesExhaustedSurfaceUnavailable(t *testing.T) {
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := g.FindDocument(context.Background(), "x")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClearTable_MissingTableIsNoOp(t *testing.T) {
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	require.NoError(t, g.ClearTable(context.Background(), "doc", "Clients"))
}

func TestWriteAndReadTables(t *testing.T) {
	stored := map[string][][]string{}
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost: // clear
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			var body rowsPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			stored[r.URL.Path] = body.Rows
		case r.Method == http.MethodGet:
			rows, ok := stored[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(rowsPayload{Rows: rows})
		}
	}))

	ctx := context.Background()
	tables := map[string][][]string{
		TableClients: {{"id", "name"}, {"c1", "Acme"}},
	}
	require.NoError(t, g.WriteTables(ctx, "doc", tables))

	got, err := g.ReadTables(ctx, "doc", []string{TableClients, TableProjects})
	require.NoError(t, err)
	assert.Equal(t, tables[TableClients], got[TableClients])
	// A table never written reads as empty, not as an error.
	assert.Nil(t, got[TableProjects])
}

func TestMetadataRoundTrip(t *testing.T) {
	stored := map[string][][]string{}
	g, _ := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var body rowsPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			stored[r.URL.Path] = body.Rows
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(rowsPayload{Rows: stored[r.URL.Path]})
		}
	}))

	ctx := context.Background()
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, g.WriteMetadata(ctx, "doc", at))

	got, err := g.ReadMetadata(ctx, "doc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))
}

func TestTableOrder_CanonicalFirst(t *testing.T) {
	tables := map[string][][]string{
		TableMeta:    nil,
		TableClients: nil,
		"Custom":     nil,
		TableEntries: nil,
	}
	order := tableOrder(tables)
	assert.Equal(t, []string{TableClients, TableEntries, TableMeta, "Custom"}, order)
}
