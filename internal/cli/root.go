package cli

import (
	"context"
	"fmt"
	"os"

	"preflight-cli/internal/format"
	"preflight-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "preflight",
		Short:        "Preflight checklist CLI (local-first)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PREFLIGHT_DIR", ""), "Path to store dir (default: nearest .preflight, else ./.preflight)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newRecordsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newWatchCmd(app))

	return cmd
}

func openStore(ctx context.Context, app *App) (*store.Store, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
		app.Dir = dir
	}
	return store.Open(ctx, dir)
}

// activeWorkspaceID resolves the workspace a command operates on: an explicit
// --workspace id wins, else the store's active workspace.
func activeWorkspaceID(ctx context.Context, s *store.Store, flagValue string) (string, error) {
	if flagValue != "" {
		if _, err := s.Workspace(ctx, flagValue); err != nil {
			return "", err
		}
		return flagValue, nil
	}
	id, err := s.ActiveWorkspaceID(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no active workspace; run `preflight workspaces create --name ...` or `preflight workspaces use <workspace-id>`")
	}
	return id, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
