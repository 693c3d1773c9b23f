package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"preflight-cli/internal/exchange"
	"preflight-cli/internal/model"
	"preflight-cli/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var workspaceID, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a workspace as a versioned JSON document",
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
			ws, err := s.Workspace(ctx, wsID)
			if err != nil {
				return writeErr(cmd, err)
			}
			tpls, err := s.TemplatesForWorkspace(ctx, wsID)
			if err != nil {
				return writeErr(cmd, err)
			}

			inWorkspace := map[string]bool{}
			var items []model.ChecklistItem
			for _, t := range tpls {
				inWorkspace[t.ID] = true
				tItems, err := s.ItemsForTemplate(ctx, t.ID)
				if err != nil {
					return writeErr(cmd, err)
				}
				items = append(items, tItems...)
			}

			all, err := s.Records(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			var records []model.PreflightRecord
			for _, r := range all {
				if inWorkspace[r.TemplateID] {
					records = append(records, r)
				}
			}

			doc := exchange.Encode(ws, tpls, items, records, time.Now())
			raw, err := exchange.EncodeJSON(doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			if outPath == "" || outPath == "-" {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := os.WriteFile(outPath, raw, 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": outPath, "workspaceId": wsID, "templates": len(tpls), "items": len(items), "records": len(records)},
			})
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (default: active workspace)")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default: stdout)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a workspace document (replace the active workspace, or merge into it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var raw []byte
			var err error
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			// Validate the whole document before touching the store.
			doc, err := exchange.Decode(raw)
			if err != nil {
				return writeErr(cmd, err)
			}

			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			var m store.ImportMode
			switch mode {
			case "replace":
				m = store.ImportReplace
			case "merge":
				m = store.ImportMerge
			default:
				return writeErr(cmd, fmt.Errorf("unknown import mode %q (want replace|merge)", mode))
			}
			if err := s.ImportWorkspace(ctx, m, *doc.Workspace, doc.Templates, doc.Items, doc.Records); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"mode": mode, "workspaceId": doc.Workspace.ID, "templates": len(doc.Templates), "items": len(doc.Items), "records": len(doc.Records)},
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "replace", "Import mode (replace|merge)")
	return cmd
}
