package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"preflight-cli/internal/model"
	"preflight-cli/internal/tree"
)

// AddItem inserts an unchecked item appended to the end of its sibling list
// (root list when parentID is nil).
func (s *Store) AddItem(ctx context.Context, templateID string, parentID *string, text string) (model.ChecklistItem, error) {
	if _, err := s.Template(ctx, templateID); err != nil {
		return model.ChecklistItem{}, err
	}
	if parentID != nil {
		p, err := s.Item(ctx, *parentID)
		if err != nil {
			return model.ChecklistItem{}, err
		}
		if p.TemplateID != templateID {
			return model.ChecklistItem{}, NotFoundError{Kind: "item", ID: *parentID}
		}
	}
	maxOrd, err := maxOrder(ctx, s.db,
		`SELECT COALESCE(MAX(ord), -1) FROM items WHERE template_id = ? AND parent_id = ?`,
		templateID, parentKey(parentID))
	if err != nil {
		return model.ChecklistItem{}, err
	}
	it := model.ChecklistItem{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		ParentID:   parentID,
		Text:       text,
		Checked:    false,
		Order:      maxOrd + 1,
	}
	if err := putItem(ctx, s.db, it); err != nil {
		return model.ChecklistItem{}, err
	}
	s.notify(CollectionItems)
	return it, nil
}

func (s *Store) Item(ctx context.Context, id string) (model.ChecklistItem, error) {
	return getJSON[model.ChecklistItem](ctx, s.db, `SELECT json FROM items WHERE id = ?`, "item", id)
}

// ItemsForTemplate lists a template's items by ascending order rank.
func (s *Store) ItemsForTemplate(ctx context.Context, templateID string) ([]model.ChecklistItem, error) {
	return listWithFallback(ctx, s.db, "items",
		`SELECT json FROM items WHERE template_id = ? ORDER BY ord ASC`,
		`SELECT json FROM items`,
		func(it model.ChecklistItem) bool { return it.TemplateID == templateID },
		func(a, b model.ChecklistItem) bool { return a.Order < b.Order },
		templateID,
	)
}

// ItemMap returns a template's items as the flat id->item mapping the tree
// package operates on.
func (s *Store) ItemMap(ctx context.Context, templateID string) (map[string]model.ChecklistItem, error) {
	items, err := s.ItemsForTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ChecklistItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// SetItemText updates the text, leaving every other field intact.
func (s *Store) SetItemText(ctx context.Context, id, text string) error {
	it, err := s.Item(ctx, id)
	if err != nil {
		return err
	}
	it.Text = text
	if err := putItem(ctx, s.db, it); err != nil {
		return err
	}
	s.notify(CollectionItems)
	return nil
}

// ToggleItem sets an item's checked state on a template's live tree,
// cascading to descendants and ancestors, and persists every changed item in
// one transaction.
func (s *Store) ToggleItem(ctx context.Context, itemID string, checked bool) error {
	it, err := s.Item(ctx, itemID)
	if err != nil {
		return err
	}
	items, err := s.ItemMap(ctx, it.TemplateID)
	if err != nil {
		return err
	}
	next, err := tree.Toggle(items, itemID, checked, time.Now())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for id, nit := range next {
		prev := items[id]
		if prev.Checked == nit.Checked && eqMsPtr(prev.CompletedAt, nit.CompletedAt) {
			continue
		}
		if err := putItem(ctx, tx, nit); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionItems)
	return nil
}

// ReorderItems renumbers the listed items to order 0..k under the given
// parent, atomically. The items are re-parented to parentID, matching a
// drag-and-drop into another sibling list.
func (s *Store) ReorderItems(ctx context.Context, parentID *string, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i, id := range orderedIDs {
		it, err := getJSON[model.ChecklistItem](ctx, tx, `SELECT json FROM items WHERE id = ?`, "item", id)
		if err != nil {
			return err
		}
		it.Order = i
		it.ParentID = parentID
		if err := putItem(ctx, tx, it); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionItems)
	return nil
}

// DeleteItem removes the item and all of its transitive descendants in one
// transaction.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	it, err := s.Item(ctx, id)
	if err != nil {
		return err
	}
	items, err := s.ItemMap(ctx, it.TemplateID)
	if err != nil {
		return err
	}

	toDelete := []string{id}
	for i := 0; i < len(toDelete); i++ {
		pid := toDelete[i]
		for cid, c := range items {
			if c.ParentID != nil && *c.ParentID == pid {
				toDelete = append(toDelete, cid)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, del := range toDelete {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, del); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionItems)
	return nil
}

func putItem(ctx context.Context, e execer, it model.ChecklistItem) error {
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = e.ExecContext(ctx,
		`INSERT OR REPLACE INTO items(id, template_id, parent_id, ord, checked, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.TemplateID, parentKey(it.ParentID), it.Order, boolToInt(it.Checked), string(raw), nowMs())
	return err
}

// parentKey maps a nil parent to "" for the indexed column; the JSON blob
// keeps the null.
func parentKey(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func eqMsPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
