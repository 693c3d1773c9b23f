package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "Workspace commands",
	}
	cmd.AddCommand(newWorkspacesListCmd(app))
	cmd.AddCommand(newWorkspacesCreateCmd(app))
	cmd.AddCommand(newWorkspacesRenameCmd(app))
	cmd.AddCommand(newWorkspacesDeleteCmd(app))
	cmd.AddCommand(newWorkspacesReorderCmd(app))
	cmd.AddCommand(newWorkspacesUseCmd(app))
	return cmd
}

func newWorkspacesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			ws, err := s.Workspaces(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			active, err := s.ActiveWorkspaceID(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": ws,
				"meta": map[string]any{"activeWorkspaceId": active},
			})
		},
	}
}

func newWorkspacesCreateCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace (becomes active)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			w, err := s.CreateWorkspace(ctx, strings.TrimSpace(name))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": w})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workspace name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWorkspacesRenameCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rename <workspace-id>",
		Short: "Rename a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.RenameWorkspace(ctx, args[0], strings.TrimSpace(name)); err != nil {
				return writeErr(cmd, err)
			}
			w, err := s.Workspace(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": w})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New workspace name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newWorkspacesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <workspace-id>",
		Short: "Delete a workspace, its templates and their items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.DeleteWorkspace(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}

func newWorkspacesReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <workspace-id>...",
		Short: "Reorder workspaces to the given sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.ReorderWorkspaces(ctx, args); err != nil {
				return writeErr(cmd, err)
			}
			ws, err := s.Workspaces(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ws})
		},
	}
}

func newWorkspacesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <workspace-id>",
		Short: "Set the active workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.SetActiveWorkspace(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"activeWorkspaceId": args[0]}})
		},
	}
}
