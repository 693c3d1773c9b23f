package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preflight-cli/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWorkspaceCreateListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateWorkspace(ctx, "Alpha")
	require.NoError(t, err)
	b, err := s.CreateWorkspace(ctx, "Bravo")
	require.NoError(t, err)

	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)

	got, err := s.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestCreateWorkspaceBecomesActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.CreateWorkspace(ctx, "Alpha")
	require.NoError(t, err)
	active, err := s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active)

	b, err := s.CreateWorkspace(ctx, "Bravo")
	require.NoError(t, err)
	active, err = s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active)
}

func TestRenameWorkspace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, err := s.CreateWorkspace(ctx, "Old")
	require.NoError(t, err)
	require.NoError(t, s.RenameWorkspace(ctx, w.ID, "New"))

	got, err := s.Workspace(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, w.Order, got.Order)
	assert.Equal(t, w.CreatedAt, got.CreatedAt)
}

func TestWorkspaceNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Workspace(ctx, "nope")
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "workspace", nf.Kind)
	assert.Equal(t, "nope", nf.ID)

	err = s.RenameWorkspace(ctx, "nope", "x")
	assert.ErrorAs(t, err, &nf)
	err = s.DeleteWorkspace(ctx, "nope")
	assert.ErrorAs(t, err, &nf)
}

func TestReorderWorkspaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateWorkspace(ctx, "a")
	b, _ := s.CreateWorkspace(ctx, "b")
	c, _ := s.CreateWorkspace(ctx, "c")

	require.NoError(t, s.ReorderWorkspaces(ctx, []string{c.ID, a.ID, b.ID}))

	got, err := s.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 0, got[0].Order)
	assert.Equal(t, 2, got[2].Order)
}

func TestReorderWorkspacesRollsBackOnMissingID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateWorkspace(ctx, "a")
	b, _ := s.CreateWorkspace(ctx, "b")

	err := s.ReorderWorkspaces(ctx, []string{b.ID, "missing", a.ID})
	var nf NotFoundError
	require.ErrorAs(t, err, &nf)

	got, err := s.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestDeleteWorkspaceCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, _ := s.CreateWorkspace(ctx, "w")
	tpl, err := s.CreateTemplate(ctx, w.ID, "t", "", "")
	require.NoError(t, err)
	root, err := s.AddItem(ctx, tpl.ID, nil, "root")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, tpl.ID, &root.ID, "child")
	require.NoError(t, err)

	require.NoError(t, s.DeleteWorkspace(ctx, w.ID))

	_, err = s.Template(ctx, tpl.ID)
	var nf NotFoundError
	assert.ErrorAs(t, err, &nf)

	items, err := s.ItemsForTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteActiveWorkspacePromotesNext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateWorkspace(ctx, "a")
	b, _ := s.CreateWorkspace(ctx, "b")
	require.NoError(t, s.SetActiveWorkspace(ctx, a.ID))

	require.NoError(t, s.DeleteWorkspace(ctx, a.ID))
	active, err := s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active)

	require.NoError(t, s.DeleteWorkspace(ctx, b.ID))
	active, err = s.ActiveWorkspaceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", active)
}

func TestSetActiveWorkspaceValidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var nf NotFoundError
	err := s.SetActiveWorkspace(ctx, "ghost")
	require.ErrorAs(t, err, &nf)
}

func TestListWithFallbackDegradesToScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b, _ := s.CreateWorkspace(ctx, "b")
	a, _ := s.CreateWorkspace(ctx, "a")
	require.NoError(t, s.ReorderWorkspaces(ctx, []string{a.ID, b.ID}))

	// Broken indexed query forces the scan path; ordering must still hold.
	got, err := listWithFallback[model.Workspace](ctx, s.db, "workspaces",
		`SELECT json FROM workspaces ORDER BY no_such_column`,
		`SELECT json FROM workspaces`,
		nil,
		func(x, y model.Workspace) bool { return x.Order < y.Order },
	)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestDiscoverDir(t *testing.T) {
	base := t.TempDir()
	_, ok := DiscoverDir(base)
	assert.False(t, ok)

	marker := filepath.Join(base, ".preflight")
	require.NoError(t, os.MkdirAll(marker, 0o755))
	nested := filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, ok := DiscoverDir(nested)
	assert.True(t, ok)
	assert.Equal(t, marker, found)
}
