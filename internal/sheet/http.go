package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/avolkovs/tallybook/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Credentials supplies the bearer token attached to every request.
// Implementations must return an error rather than an empty token when no
// valid credential is held.
type Credentials interface {
	AccessToken() (string, error)
}

// HTTPGateway talks to the tabular document service over its JSON API.
//
// Transient failures (network errors, 429, 5xx) are retried with capped
// exponential backoff before being surfaced as ErrUnavailable. Auth
// failures are never retried: a dead token does not heal by itself.
type HTTPGateway struct {
	baseURL string
	httpc   *http.Client
	creds   Credentials
	logger  logging.Logger

	backoffBase time.Duration
	maxRetries  uint64
}

// NewHTTPGateway builds a gateway for the service at baseURL. A nil client
// falls back to a default with a modest timeout.
func NewHTTPGateway(baseURL string, httpc *http.Client, creds Credentials, logger logging.Logger) *HTTPGateway {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{
		baseURL:     baseURL,
		httpc:       httpc,
		creds:       creds,
		logger:      logger,
		backoffBase: 250 * time.Millisecond,
		maxRetries:  3,
	}
}

type documentInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rowsPayload struct {
	Rows [][]string `json:"rows"`
}

// do performs one JSON request with retry. A non-nil out receives the
// decoded response body. Status codes are classified by mapStatus; only
// ErrUnavailable outcomes are retried.
func (g *HTTPGateway) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	backoff := retry.WithMaxRetries(g.maxRetries, retry.NewExponential(g.backoffBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		tok, err := g.creds.AccessToken()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := g.httpc.Do(req)
		if err != nil {
			g.logger.Warn(ctx, "document service request failed", "method", method, "path", path, "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		defer resp.Body.Close()

		if err := mapStatus(resp.StatusCode); err != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				g.logger.Warn(ctx, "document service returned retryable status",
					"method", method, "path", path, "status", resp.StatusCode)
				return retry.RetryableError(err)
			}
			return err
		}

		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// mapStatus folds HTTP status codes into the package sentinels.
func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, code)
	default:
		return fmt.Errorf("document service: unexpected status %d", code)
	}
}

func (g *HTTPGateway) FindDocument(ctx context.Context, name string) (Handle, error) {
	var resp struct {
		Documents []documentInfo `json:"documents"`
	}
	if err := g.do(ctx, http.MethodGet, "/documents?name="+url.QueryEscape(name), nil, &resp); err != nil {
		return "", err
	}
	for _, d := range resp.Documents {
		if d.Name == name {
			return Handle(d.ID), nil
		}
	}
	return "", fmt.Errorf("%w: document %q", ErrNotFound, name)
}

func (g *HTTPGateway) CreateDocument(ctx context.Context, name string) (Handle, error) {
	var resp documentInfo
	err := g.do(ctx, http.MethodPost, "/documents", map[string]string{"name": name}, &resp)
	if err != nil {
		return "", err
	}
	g.logger.Info(ctx, "created remote document", "name", name, "id", resp.ID)
	return Handle(resp.ID), nil
}

func (g *HTTPGateway) EnsureTables(ctx context.Context, h Handle, names []string) error {
	return g.do(ctx, http.MethodPost, "/documents/"+url.PathEscape(string(h))+"/tables",
		map[string][]string{"names": names}, nil)
}

func (g *HTTPGateway) ClearTable(ctx context.Context, h Handle, name string) error {
	err := g.do(ctx, http.MethodPost,
		"/documents/"+url.PathEscape(string(h))+"/tables/"+url.PathEscape(name)+"/clear", nil, nil)
	if errors.Is(err, ErrNotFound) {
		// A table that has never been written yet is fine to "clear".
		return nil
	}
	return err
}

func (g *HTTPGateway) WriteTables(ctx context.Context, h Handle, tables map[string][][]string) error {
	// Tables are written one by one; the caller treats any failure as the
	// whole push having failed, so a partial write is repaired by the next
	// successful full rewrite.
	for _, name := range tableOrder(tables) {
		if err := g.ClearTable(ctx, h, name); err != nil {
			return err
		}
		path := "/documents/" + url.PathEscape(string(h)) + "/tables/" + url.PathEscape(name) + "/rows"
		if err := g.do(ctx, http.MethodPut, path, rowsPayload{Rows: tables[name]}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (g *HTTPGateway) ReadTables(ctx context.Context, h Handle, names []string) (map[string][][]string, error) {
	result := make(map[string][][]string, len(names))
	for _, name := range names {
		var resp rowsPayload
		path := "/documents/" + url.PathEscape(string(h)) + "/tables/" + url.PathEscape(name) + "/rows"
		err := g.do(ctx, http.MethodGet, path, nil, &resp)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				result[name] = nil
				continue
			}
			return nil, err
		}
		result[name] = resp.Rows
	}
	return result, nil
}

func (g *HTTPGateway) ReadMetadata(ctx context.Context, h Handle) (*time.Time, error) {
	tables, err := g.ReadTables(ctx, h, []string{TableMeta})
	if err != nil {
		return nil, err
	}
	return MetaFromRows(tables[TableMeta])
}

func (g *HTTPGateway) WriteMetadata(ctx context.Context, h Handle, t time.Time) error {
	return g.WriteTables(ctx, h, map[string][][]string{TableMeta: MetaToRows(t)})
}

// tableOrder returns the known table names first, in their canonical order,
// so writes are deterministic.
func tableOrder(tables map[string][][]string) []string {
	order := make([]string, 0, len(tables))
	for _, name := range append(EntityTables, TableMeta) {
		if _, ok := tables[name]; ok {
			order = append(order, name)
		}
	}
	for name := range tables {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	return order
}
