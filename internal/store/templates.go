package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"preflight-cli/internal/model"
)

// CreateTemplate inserts a template appended to the end of its workspace's
// list. Pilot defaults to "Anonymous" when empty.
func (s *Store) CreateTemplate(ctx context.Context, workspaceID, name, description, pilot string) (model.Template, error) {
	if _, err := s.Workspace(ctx, workspaceID); err != nil {
		return model.Template{}, err
	}
	maxOrd, err := maxOrder(ctx, s.db, `SELECT COALESCE(MAX(ord), -1) FROM templates WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return model.Template{}, err
	}
	if pilot == "" {
		pilot = "Anonymous"
	}
	now := nowMs()
	t := model.Template{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Order:       maxOrd + 1,
		Pilot:       pilot,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := putTemplate(ctx, s.db, t); err != nil {
		return model.Template{}, err
	}
	s.notify(CollectionTemplates)
	return t, nil
}

func (s *Store) Template(ctx context.Context, id string) (model.Template, error) {
	return getJSON[model.Template](ctx, s.db, `SELECT json FROM templates WHERE id = ?`, "template", id)
}

// TemplatesForWorkspace lists a workspace's templates by ascending order
// rank.
func (s *Store) TemplatesForWorkspace(ctx context.Context, workspaceID string) ([]model.Template, error) {
	return listWithFallback(ctx, s.db, "templates",
		`SELECT json FROM templates WHERE workspace_id = ? ORDER BY ord ASC`,
		`SELECT json FROM templates`,
		func(t model.Template) bool { return t.WorkspaceID == workspaceID },
		func(a, b model.Template) bool { return a.Order < b.Order },
		workspaceID,
	)
}

// UpdateTemplate applies a partial update; nil fields are left unchanged.
func (s *Store) UpdateTemplate(ctx context.Context, id string, name, description, pilot *string) error {
	t, err := s.Template(ctx, id)
	if err != nil {
		return err
	}
	if name != nil {
		t.Name = *name
	}
	if description != nil {
		t.Description = *description
	}
	if pilot != nil {
		t.Pilot = *pilot
	}
	t.UpdatedAt = nowMs()
	if err := putTemplate(ctx, s.db, t); err != nil {
		return err
	}
	s.notify(CollectionTemplates)
	return nil
}

// ReorderTemplates renumbers the listed templates to order 0..k atomically.
func (s *Store) ReorderTemplates(ctx context.Context, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowMs()
	for i, id := range orderedIDs {
		t, err := getJSON[model.Template](ctx, tx, `SELECT json FROM templates WHERE id = ?`, "template", id)
		if err != nil {
			return err
		}
		t.Order = i
		t.UpdatedAt = now
		if err := putTemplate(ctx, tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionTemplates)
	return nil
}

// DeleteTemplate removes the template and all of its items in one
// transaction. Records referencing it keep their snapshots.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: "template", ID: id}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE template_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionTemplates, CollectionItems)
	return nil
}

func putTemplate(ctx context.Context, e execer, t model.Template) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx,
		`INSERT OR REPLACE INTO templates(id, workspace_id, name, ord, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkspaceID, t.Name, t.Order, string(raw), nowMs())
	return err
}
