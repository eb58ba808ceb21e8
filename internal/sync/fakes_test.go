package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avolkovs/tallybook/internal/logging"
	"github.com/avolkovs/tallybook/internal/sheet"
	"github.com/avolkovs/tallybook/internal/store"
	"github.com/avolkovs/tallybook/internal/token"
	"github.com/stretchr/testify/require"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:synctest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	st, err := store.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeGateway is an in-memory sheet.Gateway with error injection and call
// counting.
type fakeGateway struct {
	mu        gosync.Mutex
	documents map[string]sheet.Handle
	tables    map[string][][]string
	meta      *time.Time

	metaErr  error
	readErr  error
	writeErr error
	onWrite  func()

	writeCalls    int
	metaReadCalls int
	created       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		documents: map[string]sheet.Handle{},
		tables:    map[string][][]string{},
	}
}

func (f *fakeGateway) FindDocument(ctx context.Context, name string) (sheet.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.documents[name]
	if !ok {
		return "", sheet.ErrNotFound
	}
	return h, nil
}

func (f *fakeGateway) CreateDocument(ctx context.Context, name string) (sheet.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	h := sheet.Handle(fmt.Sprintf("doc-%d", f.created))
	f.documents[name] = h
	return h, nil
}

func (f *fakeGateway) EnsureTables(ctx context.Context, h sheet.Handle, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		if _, ok := f.tables[n]; !ok {
			f.tables[n] = nil
		}
	}
	return nil
}

func (f *fakeGateway) ClearTable(ctx context.Context, h sheet.Handle, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tables[name]; ok {
		f.tables[name] = nil
	}
	return nil
}

func (f *fakeGateway) WriteTables(ctx context.Context, h sheet.Handle, tables map[string][][]string) error {
	f.mu.Lock()
	hook := f.onWrite
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	if f.writeErr != nil {
		return f.writeErr
	}
	for name, rows := range tables {
		f.tables[name] = rows
	}
	return nil
}

func (f *fakeGateway) ReadTables(ctx context.Context, h sheet.Handle, names []string) (map[string][][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make(map[string][][]string, len(names))
	for _, n := range names {
		out[n] = f.tables[n]
	}
	return out, nil
}

func (f *fakeGateway) ReadMetadata(ctx context.Context, h sheet.Handle) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metaReadCalls++
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.meta, nil
}

func (f *fakeGateway) WriteMetadata(ctx context.Context, h sheet.Handle, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta = &t
	return nil
}

func (f *fakeGateway) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeCalls
}

// fakeTokens is an in-memory token.Provider.
type fakeTokens struct {
	valid      bool
	acquireErr error
	acquires   int
	revokes    int
}

func (f *fakeTokens) Acquire(ctx context.Context) (token.Token, error) {
	f.acquires++
	if f.acquireErr != nil {
		return token.Token{}, f.acquireErr
	}
	f.valid = true
	return token.Token{AccessToken: "fake-token"}, nil
}

func (f *fakeTokens) AccessToken() (string, error) {
	if !f.valid {
		return "", token.ErrNoToken
	}
	return "fake-token", nil
}

func (f *fakeTokens) Valid() bool { return f.valid }

func (f *fakeTokens) Revoke() {
	f.revokes++
	f.valid = false
}
