package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"preflight-cli/internal/model"
	"preflight-cli/internal/store"

	"github.com/spf13/cobra"
)

// newWatchCmd streams a live query as JSON lines: the current result set
// immediately, then a fresh one after every committed write that touches the
// watched collection, until interrupted.
func newWatchCmd(app *App) *cobra.Command {
	var workspaceID, templateID string

	cmd := &cobra.Command{
		Use:   "watch <workspaces|templates|items|records>",
		Short: "Stream live query results as JSON lines until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			switch args[0] {
			case "workspaces":
				return streamLive(ctx, cmd, app, s, s.Workspaces, store.CollectionWorkspaces)
			case "templates":
				wsID, err := activeWorkspaceID(ctx, s, workspaceID)
				if err != nil {
					return writeErr(cmd, err)
				}
				query := func(ctx context.Context) ([]model.Template, error) {
					return s.TemplatesForWorkspace(ctx, wsID)
				}
				return streamLive(ctx, cmd, app, s, query, store.CollectionTemplates)
			case "items":
				if templateID == "" {
					return writeErr(cmd, fmt.Errorf("watch items requires --template"))
				}
				query := func(ctx context.Context) ([]model.ChecklistItem, error) {
					return s.ItemsForTemplate(ctx, templateID)
				}
				return streamLive(ctx, cmd, app, s, query, store.CollectionItems)
			case "records":
				return streamLive(ctx, cmd, app, s, s.Records, store.CollectionRecords)
			default:
				return writeErr(cmd, fmt.Errorf("unknown collection %q (want workspaces|templates|items|records)", args[0]))
			}
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id for `watch templates` (default: active workspace)")
	cmd.Flags().StringVar(&templateID, "template", "", "Template id for `watch items`")
	return cmd
}

func streamLive[T any](ctx context.Context, cmd *cobra.Command, app *App, s *store.Store, query func(context.Context) ([]T, error), col store.Collection) error {
	live, err := store.Watch(ctx, s, query, col)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer live.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-live.C:
			if err := writeOut(cmd, app, map[string]any{"data": res}); err != nil {
				return err
			}
		}
	}
}
