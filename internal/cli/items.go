package cli

import (
	"preflight-cli/internal/model"
	"preflight-cli/internal/tree"

	"github.com/spf13/cobra"
)

// itemView is the nested JSON shape for `items list` and `records show`:
// the flat parent-reference mapping rendered as an ordered forest, with the
// indeterminate flag computed per node.
type itemView struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Checked       bool       `json:"checked"`
	Indeterminate bool       `json:"indeterminate"`
	Order         int        `json:"order"`
	CompletedAt   *int64     `json:"completedAt,omitempty"`
	Children      []itemView `json:"children"`
}

func forestView(items map[string]model.ChecklistItem) []itemView {
	return nodesView(items, tree.BuildForest(items))
}

func nodesView(items map[string]model.ChecklistItem, nodes []*tree.Node) []itemView {
	out := make([]itemView, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, itemView{
			ID:            n.ID,
			Text:          n.Text,
			Checked:       n.Checked,
			Indeterminate: tree.Indeterminate(items, n.ID),
			Order:         n.Order,
			CompletedAt:   n.CompletedAt,
			Children:      nodesView(items, n.Children),
		})
	}
	return out
}

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Checklist item commands",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsSetTextCmd(app))
	cmd.AddCommand(newItemsToggleCmd(app))
	cmd.AddCommand(newItemsReorderCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	var templateID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a template's items as an ordered forest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if _, err := s.Template(ctx, templateID); err != nil {
				return writeErr(cmd, err)
			}
			items, err := s.ItemMap(ctx, templateID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": forestView(items),
				"meta": map[string]any{"templateId": templateID, "count": len(items)},
			})
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template id")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var templateID, parentID, text string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item (appended to its sibling list)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			var parent *string
			if parentID != "" {
				parent = &parentID
			}
			it, err := s.AddItem(ctx, templateID, parent, text)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template id")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent item id (default: root level)")
	cmd.Flags().StringVar(&text, "text", "", "Item text")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newItemsSetTextCmd(app *App) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "set-text <item-id>",
		Short: "Change an item's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.SetItemText(ctx, args[0], text); err != nil {
				return writeErr(cmd, err)
			}
			it, err := s.Item(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New item text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newItemsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Flip an item's checked state, cascading to descendants and ancestors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			it, err := s.Item(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.ToggleItem(ctx, args[0], !it.Checked); err != nil {
				return writeErr(cmd, err)
			}
			items, err := s.ItemMap(ctx, it.TemplateID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": forestView(items),
				"meta": map[string]any{"templateId": it.TemplateID},
			})
		},
	}
}

func newItemsReorderCmd(app *App) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "reorder <item-id>...",
		Short: "Renumber items 0..k under a parent (moves them there if needed)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			var parent *string
			if parentID != "" {
				parent = &parentID
			}
			if err := s.ReorderItems(ctx, parent, args); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"reordered": args}})
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "Parent item id (default: root level)")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete an item and all of its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.DeleteItem(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}
