package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"
	"time"

	"github.com/avolkovs/tallybook/internal/logging"
	"github.com/avolkovs/tallybook/internal/sheet"
	"github.com/avolkovs/tallybook/internal/store"
	"github.com/avolkovs/tallybook/internal/token"
	"github.com/jonboulle/clockwork"
)

// ErrSyncInFlight is returned by Pull when a push or another pull is
// already running. Push handles the same situation by dropping the request
// instead (see Push).
var ErrSyncInFlight = errors.New("another sync operation is in flight")

// DefaultDebounceDelay is how long after the last local change an
// automatic push waits before firing.
const DefaultDebounceDelay = 2 * time.Second

// Options configures an Orchestrator.
type Options struct {
	// DocumentName is the well-known remote document name used by Connect
	// to find a pre-existing document before creating a new one.
	DocumentName string
	// DebounceDelay overrides DefaultDebounceDelay when non-zero.
	DebounceDelay time.Duration
	// Clock defaults to the real clock; tests inject a fake.
	Clock clockwork.Clock
	// Logger defaults to a discarding logger.
	Logger logging.Logger
}

// Orchestrator owns the sync state machine. One instance runs per
// application instance; all state lives on the instance (never in package
// globals) so tests can run several in isolation.
type Orchestrator struct {
	store    *store.Store
	gw       sheet.Gateway
	tokens   token.Provider
	detector *Detector
	logger   logging.Logger
	clock    clockwork.Clock

	docName       string
	debounceDelay time.Duration

	mu       gosync.Mutex
	inFlight bool
	debounce clockwork.Timer
	status   Status
	onStatus func(Status)
	closed   bool
}

// New wires an orchestrator to the store, gateway and token provider, and
// registers itself as the store's change hook so every local write arms the
// debounced push.
func New(st *store.Store, gw sheet.Gateway, tokens token.Provider, opts Options) *Orchestrator {
	o := &Orchestrator{
		store:         st,
		gw:            gw,
		tokens:        tokens,
		detector:      NewDetector(st, gw),
		logger:        opts.Logger,
		clock:         opts.Clock,
		docName:       opts.DocumentName,
		debounceDelay: opts.DebounceDelay,
		status:        Status{State: StateIdle},
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.logger == nil {
		o.logger = logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	}
	if o.debounceDelay == 0 {
		o.debounceDelay = DefaultDebounceDelay
	}
	st.SetOnChange(o.NotifyLocalChange)
	return o
}

// SetOnStatus registers an observer called after every status change.
func (o *Orchestrator) SetOnStatus(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onStatus = fn
}

// Status returns the current sync status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Close marks the orchestrator as torn down. In-flight remote calls are not
// cancelled; their results are simply no longer applied to the status.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.debounce != nil {
		o.debounce.Stop()
		o.debounce = nil
	}
}

// NotifyLocalChange re-arms the debounce timer. Rapid successive edits
// collapse into a single push once the timer fires. Does nothing until a
// remote document has been configured.
func (o *Orchestrator) NotifyLocalChange() {
	docID, err := o.store.DocumentID(context.Background())
	if err != nil || docID == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.debounce == nil {
		o.debounce = o.clock.AfterFunc(o.debounceDelay, func() {
			_ = o.Push(context.Background(), false)
		})
		return
	}
	o.debounce.Reset(o.debounceDelay)
}

// begin claims the single-flight slot. Push and Pull share it: the
// pull-during-push race is closed by serializing both under one guard.
func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight || o.closed {
		return false
	}
	o.inFlight = true
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.inFlight = false
	o.mu.Unlock()
}

// Push uploads the local snapshot, merging first when another device has
// pushed since our last sync.
//
// A push already in flight causes this request to be dropped, not queued:
// the in-flight push reads the store lazily, so it already covers any edits
// made before its snapshot, and edits made after re-arm the debounce for a
// later push. With immediate=true any pending debounce timer is cancelled
// first.
//
// An entirely empty local dataset is never pushed over a configured remote
// document: a freshly reinstalled or cleared device must not silently wipe
// a populated backup. The guard is a quiet no-op, reported as idle rather
// than as an error.
func (o *Orchestrator) Push(ctx context.Context, immediate bool) error {
	if immediate {
		o.cancelDebounce()
	}
	if !o.begin() {
		o.logger.Debug(ctx, "push already in flight, dropping trigger")
		return nil
	}
	defer o.end()

	docID, err := o.store.DocumentID(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}
	if docID == "" {
		return nil
	}
	h := sheet.Handle(docID)

	if !o.tokens.Valid() {
		return o.fail(ctx, fmt.Errorf("%w: run connect to re-link this device", sheet.ErrUnauthorized))
	}

	local, err := o.store.Snapshot(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}
	if local.Empty() {
		o.logger.Info(ctx, "local dataset is empty, refusing to overwrite remote document")
		o.setStatus(StateIdle, "")
		return nil
	}

	o.setStatus(StatePushing, "")

	res, err := o.detector.Check(ctx, h)
	if err != nil {
		return o.fail(ctx, err)
	}

	snap := local
	if res.Conflict {
		o.setStatus(StateConflict, "merging changes from another device")
		snap = Merge(local, *res.Remote)
		// Write the merged result back first so the UI shows exactly what
		// is about to be pushed.
		if err := o.store.ReplaceAll(ctx, snap); err != nil {
			return o.fail(ctx, err)
		}
		o.logger.Info(ctx, "merged remote changes",
			"clients", len(snap.Clients), "projects", len(snap.Projects),
			"entries", len(snap.Entries), "invoices", len(snap.Invoices))
	}

	if err := o.gw.EnsureTables(ctx, h, allTables()); err != nil {
		return o.fail(ctx, err)
	}
	if err := o.gw.WriteTables(ctx, h, sheet.SnapshotToTables(snap)); err != nil {
		return o.fail(ctx, err)
	}

	pushedAt := o.clock.Now().UTC()
	if err := o.gw.WriteMetadata(ctx, h, pushedAt); err != nil {
		return o.fail(ctx, err)
	}
	if err := o.store.SetLastSyncTime(ctx, pushedAt); err != nil {
		return o.fail(ctx, err)
	}

	o.logger.Info(ctx, "push finished", "at", pushedAt)
	o.setSynced(pushedAt)
	return nil
}

// Pull replaces the local store with the remote document's contents. It is
// always user-initiated, so acquiring a credential interactively here is
// acceptable.
func (o *Orchestrator) Pull(ctx context.Context) error {
	if !o.begin() {
		return ErrSyncInFlight
	}
	defer o.end()
	return o.pull(ctx)
}

func (o *Orchestrator) pull(ctx context.Context) error {
	docID, err := o.store.DocumentID(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}
	if docID == "" {
		return o.fail(ctx, errors.New("no remote document configured; run connect first"))
	}
	h := sheet.Handle(docID)

	if !o.tokens.Valid() {
		if _, err := o.tokens.Acquire(ctx); err != nil {
			return o.fail(ctx, err)
		}
	}

	o.setStatus(StatePulling, "")

	tables, err := o.gw.ReadTables(ctx, h, sheet.EntityTables)
	if err != nil {
		return o.fail(ctx, err)
	}
	snap, err := sheet.TablesToSnapshot(tables)
	if err != nil {
		return o.fail(ctx, err)
	}

	// Full replace, not merge: pull adopts the remote copy wholesale.
	if err := o.store.ReplaceAll(ctx, snap); err != nil {
		return o.fail(ctx, err)
	}

	lastModified, err := o.gw.ReadMetadata(ctx, h)
	if err != nil {
		return o.fail(ctx, err)
	}
	if lastModified != nil {
		if err := o.store.SetLastSyncTime(ctx, *lastModified); err != nil {
			return o.fail(ctx, err)
		}
		o.logger.Info(ctx, "pull finished", "lastModified", *lastModified)
		o.setSynced(*lastModified)
		return nil
	}

	o.logger.Info(ctx, "pull finished, document carries no sync marker")
	o.setConnectedIdle()
	return nil
}

// Connect links this device to the remote document. The credential prompt
// comes first, with no remote round-trips between the user's action and the
// prompt. If no document reference is stored, a pre-existing document is
// searched for by its well-known name before a new one is created. A device
// with an empty local store then pulls rather than pushes, so linking a new
// device never overwrites a populated document.
func (o *Orchestrator) Connect(ctx context.Context) error {
	if _, err := o.tokens.Acquire(ctx); err != nil {
		return o.fail(ctx, err)
	}

	docID, err := o.store.DocumentID(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}
	if docID == "" {
		h, err := o.gw.FindDocument(ctx, o.docName)
		if errors.Is(err, sheet.ErrNotFound) {
			h, err = o.gw.CreateDocument(ctx, o.docName)
		}
		if err != nil {
			return o.fail(ctx, err)
		}
		if err := o.store.SetDocumentID(ctx, string(h)); err != nil {
			return o.fail(ctx, err)
		}
		docID = string(h)
	}
	h := sheet.Handle(docID)

	if err := o.gw.EnsureTables(ctx, h, allTables()); err != nil {
		return o.fail(ctx, err)
	}

	local, err := o.store.Snapshot(ctx)
	if err != nil {
		return o.fail(ctx, err)
	}

	if local.Empty() {
		o.logger.Info(ctx, "local store is empty, treating connect as first-time setup")
		return o.Pull(ctx)
	}
	return o.Push(ctx, true)
}

// Disconnect unlinks this device: the pending debounce is cancelled, the
// credential revoked, and the stored document reference and last sync time
// cleared together. The remote document itself is never touched.
func (o *Orchestrator) Disconnect(ctx context.Context) error {
	o.cancelDebounce()
	o.tokens.Revoke()
	if err := o.store.ClearSyncState(ctx); err != nil {
		return o.fail(ctx, err)
	}
	o.logger.Info(ctx, "disconnected from remote document")
	o.setDisconnected()
	return nil
}

func (o *Orchestrator) cancelDebounce() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.debounce != nil {
		o.debounce.Stop()
		o.debounce = nil
	}
}

// fail classifies err, records it in the status, and passes it through.
// Auth failures get reconnect guidance: a dead token will not heal through
// retry, only through user action.
func (o *Orchestrator) fail(ctx context.Context, err error) error {
	msg := err.Error()
	if errors.Is(err, sheet.ErrUnauthorized) || errors.Is(err, token.ErrNoToken) {
		msg = "authorization expired or missing; run connect to re-link this device"
	}
	o.logger.Error(ctx, "sync operation failed", "error", err)
	o.setStatus(StateError, msg)
	return err
}

func (o *Orchestrator) setStatus(state State, msg string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.status.State = state
	o.status.Message = msg
	st := o.status
	cb := o.onStatus
	o.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

func (o *Orchestrator) setSynced(at time.Time) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.status = Status{State: StateIdle, Connected: true, LastSync: &at}
	st := o.status
	cb := o.onStatus
	o.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

func (o *Orchestrator) setConnectedIdle() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.status.State = StateIdle
	o.status.Message = ""
	o.status.Connected = true
	st := o.status
	cb := o.onStatus
	o.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

func (o *Orchestrator) setDisconnected() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.status = Status{State: StateIdle}
	st := o.status
	cb := o.onStatus
	o.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

func allTables() []string {
	return append(slices.Clone(sheet.EntityTables), sheet.TableMeta)
}
