package store

import (
	"context"
	"fmt"

	"preflight-cli/internal/model"
)

// ImportMode selects how an imported workspace meets the existing data.
type ImportMode string

const (
	// ImportReplace deletes the active workspace (with its templates and
	// items) and installs the imported workspace in its place.
	ImportReplace ImportMode = "replace"
	// ImportMerge grafts the imported templates and items onto the active
	// workspace, keeping what is already there.
	ImportMerge ImportMode = "merge"
)

// ImportWorkspace applies a decoded export document in one transaction.
//
// Replace mode removes the current active workspace and everything under it,
// then writes the imported workspace as-is and makes it active. Merge mode
// keeps the active workspace and re-targets every imported template at it;
// imported ids win on collision in both modes. Records always import as-is,
// since they are self-contained snapshots.
func (s *Store) ImportWorkspace(ctx context.Context, mode ImportMode, ws model.Workspace, templates []model.Template, items []model.ChecklistItem, records []model.PreflightRecord) error {
	switch mode {
	case ImportReplace, ImportMerge:
	default:
		return fmt.Errorf("unknown import mode %q", mode)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	targetWorkspace := ws.ID
	switch mode {
	case ImportReplace:
		active, err := readMeta(ctx, tx, metaActiveWorkspace)
		if err != nil {
			return err
		}
		// The delete is unconditional, including when the imported workspace
		// id equals the active one: a round-trip re-import must not keep
		// templates or items that were deleted since the export.
		if active != "" {
			if err := deleteWorkspaceTx(ctx, tx, active); err != nil {
				if _, ok := err.(NotFoundError); !ok {
					return err
				}
			}
		}
		if err := putWorkspace(ctx, tx, ws); err != nil {
			return err
		}
		if err := writeMeta(ctx, tx, metaActiveWorkspace, ws.ID); err != nil {
			return err
		}
	case ImportMerge:
		active, err := readMeta(ctx, tx, metaActiveWorkspace)
		if err != nil {
			return err
		}
		if active == "" {
			// Nothing to merge into; fall back to installing the
			// imported workspace.
			if err := putWorkspace(ctx, tx, ws); err != nil {
				return err
			}
			if err := writeMeta(ctx, tx, metaActiveWorkspace, ws.ID); err != nil {
				return err
			}
		} else {
			targetWorkspace = active
		}
	}

	for _, t := range templates {
		t.WorkspaceID = targetWorkspace
		if err := putTemplate(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, it := range items {
		if err := putItem(ctx, tx, it); err != nil {
			return err
		}
	}
	for _, rec := range records {
		if err := putRecord(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(CollectionWorkspaces, CollectionTemplates, CollectionItems, CollectionRecords)
	return nil
}
