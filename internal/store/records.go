package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"preflight-cli/internal/model"
	"preflight-cli/internal/tree"
)

// StartRecord snapshots the template's current items into a new running
// record. The snapshot is owned solely by the record: items start unchecked
// with CompletedAt cleared, and later template edits never reach it.
func (s *Store) StartRecord(ctx context.Context, templateID, pilot string) (model.PreflightRecord, error) {
	tpl, err := s.Template(ctx, templateID)
	if err != nil {
		return model.PreflightRecord{}, err
	}
	items, err := s.ItemMap(ctx, templateID)
	if err != nil {
		return model.PreflightRecord{}, err
	}

	snapshot := make(map[string]model.ChecklistItem, len(items))
	for id, it := range items {
		it.Checked = false
		it.CompletedAt = nil
		snapshot[id] = it
	}

	if pilot == "" {
		pilot = tpl.Pilot
	}
	if pilot == "" {
		pilot = "Anonymous"
	}
	now := time.Now()
	ms := now.UTC().UnixMilli()
	resumed := ms
	rec := model.PreflightRecord{
		ID:         uuid.NewString(),
		TemplateID: templateID,
		Name:       tpl.Name + " - " + now.Format("2006-01-02 15:04"),
		Pilot:      pilot,
		CreatedAt:  ms,
		ElapsedMs:  0,
		IsPaused:   false,
		ResumedAt:  &resumed,
		Items:      snapshot,
	}
	if err := putRecord(ctx, s.db, rec); err != nil {
		return model.PreflightRecord{}, err
	}
	s.notify(CollectionRecords)
	return rec, nil
}

func (s *Store) Record(ctx context.Context, id string) (model.PreflightRecord, error) {
	return getJSON[model.PreflightRecord](ctx, s.db, `SELECT json FROM records WHERE id = ?`, "record", id)
}

// Records lists all records, newest first.
func (s *Store) Records(ctx context.Context) ([]model.PreflightRecord, error) {
	return listWithFallback(ctx, s.db, "records",
		`SELECT json FROM records ORDER BY created_at_unixms DESC`,
		`SELECT json FROM records`,
		nil,
		func(a, b model.PreflightRecord) bool { return a.CreatedAt > b.CreatedAt },
	)
}

// ToggleRecordItem flips one item in the record's snapshot, cascades the
// change through the snapshot tree, and stamps the record's CompletedAt when
// every item is checked (clearing it otherwise).
func (s *Store) ToggleRecordItem(ctx context.Context, recordID, itemID string) (model.PreflightRecord, error) {
	rec, err := s.Record(ctx, recordID)
	if err != nil {
		return model.PreflightRecord{}, err
	}
	cur, ok := rec.Items[itemID]
	if !ok {
		return model.PreflightRecord{}, NotFoundError{Kind: "item", ID: itemID}
	}

	now := time.Now()
	next, err := tree.Toggle(rec.Items, itemID, !cur.Checked, now)
	if err != nil {
		return model.PreflightRecord{}, err
	}
	rec.Items = next

	allChecked := true
	for _, it := range next {
		if !it.Checked {
			allChecked = false
			break
		}
	}
	ms := now.UTC().UnixMilli()
	if allChecked && len(next) > 0 {
		rec.CompletedAt = &ms
	} else {
		rec.CompletedAt = nil
	}
	updated := ms
	rec.UpdatedAt = &updated

	if err := putRecord(ctx, s.db, rec); err != nil {
		return model.PreflightRecord{}, err
	}
	s.notify(CollectionRecords)
	return rec, nil
}

// UpdateRecordTimer overwrites the timer fields.
func (s *Store) UpdateRecordTimer(ctx context.Context, id string, elapsedMs, resumedAtMs int64, isPaused bool) error {
	rec, err := s.Record(ctx, id)
	if err != nil {
		return err
	}
	rec.ElapsedMs = elapsedMs
	rec.ResumedAt = &resumedAtMs
	rec.IsPaused = isPaused
	now := nowMs()
	rec.UpdatedAt = &now
	if err := putRecord(ctx, s.db, rec); err != nil {
		return err
	}
	s.notify(CollectionRecords)
	return nil
}

// PauseRecord folds the running span into ElapsedMs and stops the timer.
// Pausing an already paused record is a no-op.
func (s *Store) PauseRecord(ctx context.Context, id string) (model.PreflightRecord, error) {
	rec, err := s.Record(ctx, id)
	if err != nil {
		return model.PreflightRecord{}, err
	}
	if rec.IsPaused {
		return rec, nil
	}
	now := nowMs()
	rec.ElapsedMs = rec.Elapsed(now)
	rec.ResumedAt = nil
	rec.IsPaused = true
	rec.UpdatedAt = &now
	if err := putRecord(ctx, s.db, rec); err != nil {
		return model.PreflightRecord{}, err
	}
	s.notify(CollectionRecords)
	return rec, nil
}

// ResumeRecord restarts the timer. Resuming a running record is a no-op.
func (s *Store) ResumeRecord(ctx context.Context, id string) (model.PreflightRecord, error) {
	rec, err := s.Record(ctx, id)
	if err != nil {
		return model.PreflightRecord{}, err
	}
	if !rec.IsPaused {
		return rec, nil
	}
	now := nowMs()
	rec.ResumedAt = &now
	rec.IsPaused = false
	rec.UpdatedAt = &now
	if err := putRecord(ctx, s.db, rec); err != nil {
		return model.PreflightRecord{}, err
	}
	s.notify(CollectionRecords)
	return rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NotFoundError{Kind: "record", ID: id}
	}
	s.notify(CollectionRecords)
	return nil
}

func putRecord(ctx context.Context, e execer, rec model.PreflightRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	var completed any
	if rec.CompletedAt != nil {
		completed = *rec.CompletedAt
	}
	_, err = e.ExecContext(ctx,
		`INSERT OR REPLACE INTO records(id, template_id, created_at_unixms, completed_at_unixms, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TemplateID, rec.CreatedAt, completed, string(raw), nowMs())
	return err
}
