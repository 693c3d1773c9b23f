// Package store persists preflight data in a single local SQLite database:
// four collections (workspaces, templates, items, records) stored as JSON
// blobs next to indexed scalar columns, plus a small k/v meta table for the
// active workspace. Multi-row mutations run inside one transaction and
// commit or roll back as a unit. Committed writes feed the live query layer
// (see live.go).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const dbFileName = "preflight.sqlite"

const metaActiveWorkspace = "active_workspace_id"

type Store struct {
	db  *sql.DB
	dir string

	mu        sync.Mutex
	watchers  map[int]*watcher
	nextWatch int
}

// Open opens (creating if needed) the store rooted at dir.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dir: dir, watchers: map[int]*watcher{}}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dir() string { return s.dir }

// DiscoverDir walks upward from start looking for an existing .preflight
// directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".preflight")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// DefaultDir resolves the store directory: an existing .preflight found from
// the working directory upward, else .preflight under the working directory.
func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, ".preflight"), nil
}

// ActiveWorkspaceID returns the current workspace id, or "" when unset.
func (s *Store) ActiveWorkspaceID(ctx context.Context) (string, error) {
	return readMeta(ctx, s.db, metaActiveWorkspace)
}

// SetActiveWorkspace points the CLI (and merge imports) at a workspace.
func (s *Store) SetActiveWorkspace(ctx context.Context, id string) error {
	if id != "" {
		if _, err := s.Workspace(ctx, id); err != nil {
			return err
		}
	}
	if err := writeMeta(ctx, s.db, metaActiveWorkspace, id); err != nil {
		return err
	}
	s.notify(CollectionWorkspaces)
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readMeta(ctx context.Context, q querier, k string) (string, error) {
	var v string
	err := q.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, k).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func writeMeta(ctx context.Context, e execer, k, v string) error {
	_, err := e.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, k, v)
	return err
}

func queryJSON[T any](ctx context.Context, q querier, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// listWithFallback runs the indexed query and, if it fails at the storage
// layer, degrades to a full unindexed scan sorted/filtered in memory instead
// of surfacing the error. The fallback is logged, never returned.
func listWithFallback[T any](ctx context.Context, q querier, collection, indexed, scan string, keep func(T) bool, less func(a, b T) bool, args ...any) ([]T, error) {
	out, err := queryJSON[T](ctx, q, indexed, args...)
	if err == nil {
		return out, nil
	}
	log.Warn().Err(err).Str("collection", collection).Msg("indexed query failed; falling back to full scan")

	out, err = queryJSON[T](ctx, q, scan)
	if err != nil {
		return nil, err
	}
	if keep != nil {
		kept := out[:0]
		for _, v := range out {
			if keep(v) {
				kept = append(kept, v)
			}
		}
		out = kept
	}
	if less != nil {
		sortSliceStable(out, less)
	}
	return out, nil
}

func sortSliceStable[T any](xs []T, less func(a, b T) bool) {
	// Insertion sort: collections are small and this keeps the helper free of
	// sort.Slice's reflection on the generic slice.
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && less(xs[j], xs[j-1]); j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

func nowMs() int64 {
	return time.Now().UTC().UnixMilli()
}
