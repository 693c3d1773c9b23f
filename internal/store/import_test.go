package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preflight-cli/internal/model"
)

func importedFixture() (model.Workspace, []model.Template, []model.ChecklistItem) {
	ws := model.Workspace{ID: "imp-ws", Name: "Imported", Order: 0, CreatedAt: 1, UpdatedAt: 1}
	tpl := model.Template{ID: "imp-tpl", WorkspaceID: ws.ID, Name: "Imported checks", Pilot: "Ada", CreatedAt: 1, UpdatedAt: 1}
	item := model.ChecklistItem{ID: "imp-item", TemplateID: tpl.ID, Text: "imported", Order: 0}
	return ws, []model.Template{tpl}, []model.ChecklistItem{item}
}

func TestImportReplaceSwapsActiveWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old, _ := s.CreateWorkspace(ctx, "old")
	oldTpl, _ := s.CreateTemplate(ctx, old.ID, "old checks", "", "")
	oldItem, _ := s.AddItem(ctx, oldTpl.ID, nil, "old item")

	ws, tpls, items := importedFixture()
	require.NoError(t, s.ImportWorkspace(ctx, ImportReplace, ws, tpls, items, nil))

	var nf NotFoundError
	_, err := s.Workspace(ctx, old.ID)
	assert.ErrorAs(t, err, &nf)
	_, err = s.Item(ctx, oldItem.ID)
	assert.ErrorAs(t, err, &nf)

	active, err := s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, active)

	got, err := s.TemplatesForWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "imp-tpl", got[0].ID)
}

// Re-importing an export of the currently active workspace must still
// replace: templates and items deleted since the export stay gone.
func TestImportReplaceSameWorkspaceID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ws, tpls, items := importedFixture()
	require.NoError(t, s.ImportWorkspace(ctx, ImportReplace, ws, tpls, items, nil))

	newTpl := model.Template{ID: "imp-tpl-2", WorkspaceID: ws.ID, Name: "Newer checks", Pilot: "Ada", CreatedAt: 2, UpdatedAt: 2}
	newItem := model.ChecklistItem{ID: "imp-item-2", TemplateID: newTpl.ID, Text: "newer", Order: 0}
	require.NoError(t, s.ImportWorkspace(ctx, ImportReplace, ws, []model.Template{newTpl}, []model.ChecklistItem{newItem}, nil))

	got, err := s.TemplatesForWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "imp-tpl-2", got[0].ID)

	var nf NotFoundError
	_, err = s.Template(ctx, "imp-tpl")
	assert.ErrorAs(t, err, &nf)
	_, err = s.Item(ctx, "imp-item")
	assert.ErrorAs(t, err, &nf)

	active, err := s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, active)
}

func TestImportMergeGraftsOntoActiveWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cur, _ := s.CreateWorkspace(ctx, "current")
	_, err := s.CreateTemplate(ctx, cur.ID, "existing", "", "")
	require.NoError(t, err)

	ws, tpls, items := importedFixture()
	require.NoError(t, s.ImportWorkspace(ctx, ImportMerge, ws, tpls, items, nil))

	// The imported workspace itself is not installed in merge mode.
	var nf NotFoundError
	_, err = s.Workspace(ctx, ws.ID)
	assert.ErrorAs(t, err, &nf)

	got, err := s.TemplatesForWorkspace(ctx, cur.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	imp, err := s.Template(ctx, "imp-tpl")
	require.NoError(t, err)
	assert.Equal(t, cur.ID, imp.WorkspaceID)
}

func TestImportMergeIntoEmptyStoreInstallsWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ws, tpls, items := importedFixture()
	require.NoError(t, s.ImportWorkspace(ctx, ImportMerge, ws, tpls, items, nil))

	active, err := s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, active)
}

func TestImportCarriesRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ws, tpls, items := importedFixture()
	rec := model.PreflightRecord{
		ID:         "imp-rec",
		TemplateID: "imp-tpl",
		Name:       "Imported run",
		Pilot:      "Ada",
		CreatedAt:  2,
		IsPaused:   true,
		Items:      map[string]model.ChecklistItem{"imp-item": items[0]},
	}
	require.NoError(t, s.ImportWorkspace(ctx, ImportReplace, ws, tpls, items, []model.PreflightRecord{rec}))

	got, err := s.Record(ctx, "imp-rec")
	require.NoError(t, err)
	assert.Equal(t, "Imported run", got.Name)
	assert.True(t, got.IsPaused)
}

func TestImportUnknownMode(t *testing.T) {
	s := newTestStore(t)
	ws, tpls, items := importedFixture()
	err := s.ImportWorkspace(context.Background(), ImportMode("sideways"), ws, tpls, items, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}
