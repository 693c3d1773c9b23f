package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Checklist template commands",
	}
	cmd.AddCommand(newTemplatesListCmd(app))
	cmd.AddCommand(newTemplatesCreateCmd(app))
	cmd.AddCommand(newTemplatesUpdateCmd(app))
	cmd.AddCommand(newTemplatesDeleteCmd(app))
	cmd.AddCommand(newTemplatesReorderCmd(app))
	return cmd
}

func newTemplatesListCmd(app *App) *cobra.Command {
	var workspaceID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates in the active (or given) workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			wsID, err := activeWorkspaceID(ctx, s, workspaceID)
			if err != nil {
				return writeErr(cmd, err)
			}
			tpls, err := s.TemplatesForWorkspace(ctx, wsID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": tpls,
				"meta": map[string]any{"workspaceId": wsID},
			})
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (default: active workspace)")
	return cmd
}

func newTemplatesCreateCmd(app *App) *cobra.Command {
	var workspaceID, name, description, pilot string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			wsID, err := activeWorkspaceID(ctx, s, workspaceID)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := s.CreateTemplate(ctx, wsID, strings.TrimSpace(name), description, pilot)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (default: active workspace)")
	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&description, "description", "", "Template description")
	cmd.Flags().StringVar(&pilot, "pilot", "", "Default pilot name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTemplatesUpdateCmd(app *App) *cobra.Command {
	var name, description, pilot string

	cmd := &cobra.Command{
		Use:   "update <template-id>",
		Short: "Update a template's name, description or pilot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			var namePtr, descPtr, pilotPtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			if cmd.Flags().Changed("description") {
				descPtr = &description
			}
			if cmd.Flags().Changed("pilot") {
				pilotPtr = &pilot
			}
			if err := s.UpdateTemplate(ctx, args[0], namePtr, descPtr, pilotPtr); err != nil {
				return writeErr(cmd, err)
			}
			t, err := s.Template(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New template name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&pilot, "pilot", "", "New default pilot")
	return cmd
}

func newTemplatesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template and its items (records keep their snapshots)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.DeleteTemplate(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}

func newTemplatesReorderCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <template-id>...",
		Short: "Reorder templates to the given sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.ReorderTemplates(ctx, args); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reordered": args}})
		},
	}
}
