package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"preflight-cli/internal/model"
)

// CreateWorkspace inserts a workspace appended to the end of the list and
// makes it the active workspace.
func (s *Store) CreateWorkspace(ctx context.Context, name string) (model.Workspace, error) {
	now := nowMs()
	maxOrd, err := maxOrder(ctx, s.db, `SELECT COALESCE(MAX(ord), -1) FROM workspaces`)
	if err != nil {
		return model.Workspace{}, err
	}
	w := model.Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		Order:     maxOrd + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := putWorkspace(ctx, s.db, w); err != nil {
		return model.Workspace{}, err
	}
	if err := writeMeta(ctx, s.db, metaActiveWorkspace, w.ID); err != nil {
		return model.Workspace{}, err
	}
	s.notify(CollectionWorkspaces)
	return w, nil
}

func (s *Store) Workspace(ctx context.Context, id string) (model.Workspace, error) {
	return getJSON[model.Workspace](ctx, s.db, `SELECT json FROM workspaces WHERE id = ?`, "workspace", id)
}

// Workspaces lists all workspaces by ascending order rank.
func (s *Store) Workspaces(ctx context.Context) ([]model.Workspace, error) {
	return listWithFallback(ctx, s.db, "workspaces",
		`SELECT json FROM workspaces ORDER BY ord ASC`,
		`SELECT json FROM workspaces`,
		nil,
		func(a, b model.Workspace) bool { return a.Order < b.Order },
	)
}

// RenameWorkspace updates the name, leaving every other field intact.
func (s *Store) RenameWorkspace(ctx context.Context, id, name string) error {
	w, err := s.Workspace(ctx, id)
	if err != nil {
		return err
	}
	w.Name = name
	w.UpdatedAt = nowMs()
	if err := putWorkspace(ctx, s.db, w); err != nil {
		return err
	}
	s.notify(CollectionWorkspaces)
	return nil
}

// ReorderWorkspaces renumbers the listed workspaces to order 0..k in the
// given sequence, atomically: a failure part-way leaves the original
// ordering fully intact.
func (s *Store) ReorderWorkspaces(ctx context.Context, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowMs()
	for i, id := range orderedIDs {
		w, err := getJSON[model.Workspace](ctx, tx, `SELECT json FROM workspaces WHERE id = ?`, "workspace", id)
		if err != nil {
			return err
		}
		w.Order = i
		w.UpdatedAt = now
		if err := putWorkspace(ctx, tx, w); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionWorkspaces)
	return nil
}

// DeleteWorkspace removes the workspace, its templates, and their items in
// one transaction. Records are left alone: they are self-contained snapshots
// scoped by templateId only. If the deleted workspace was active, the first
// remaining workspace (by order) becomes active.
func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteWorkspaceTx(ctx, tx, id); err != nil {
		return err
	}

	active, err := readMeta(ctx, tx, metaActiveWorkspace)
	if err != nil {
		return err
	}
	if active == id {
		next := ""
		row := tx.QueryRowContext(ctx, `SELECT id FROM workspaces ORDER BY ord ASC LIMIT 1`)
		_ = row.Scan(&next)
		if err := writeMeta(ctx, tx, metaActiveWorkspace, next); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionWorkspaces, CollectionTemplates, CollectionItems)
	return nil
}

// deleteWorkspaceTx is the cascading delete shared by DeleteWorkspace and
// replace-mode imports; the caller owns the transaction.
func deleteWorkspaceTx(ctx context.Context, tx querierExecer, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: "workspace", ID: id}
	}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM templates WHERE workspace_id = ?`, id)
	if err != nil {
		return err
	}
	var tplIDs []string
	for rows.Next() {
		var tid string
		if err := rows.Scan(&tid); err != nil {
			rows.Close()
			return err
		}
		tplIDs = append(tplIDs, tid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, tid := range tplIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE template_id = ?`, tid); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE workspace_id = ?`, id); err != nil {
		return err
	}
	return nil
}

type querierExecer interface {
	querier
	execer
}

func putWorkspace(ctx context.Context, e execer, w model.Workspace) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx,
		`INSERT OR REPLACE INTO workspaces(id, name, ord, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Order, string(raw), nowMs())
	return err
}

func getJSON[T any](ctx context.Context, q querier, query, kind, id string) (T, error) {
	var zero T
	var js string
	err := q.QueryRowContext(ctx, query, id).Scan(&js)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal([]byte(js), &v); err != nil {
		return zero, err
	}
	return v, nil
}

func maxOrder(ctx context.Context, q querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
