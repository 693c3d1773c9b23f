package cli

import (
	"time"

	"preflight-cli/internal/model"

	"github.com/spf13/cobra"
)

// recordView augments a record with the wall-clock elapsed time and its
// snapshot rendered as a forest.
type recordView struct {
	model.PreflightRecord
	ElapsedNowMs int64      `json:"elapsedNowMs"`
	Forest       []itemView `json:"forest"`
}

func newRecordView(rec model.PreflightRecord) recordView {
	return recordView{
		PreflightRecord: rec,
		ElapsedNowMs:    rec.Elapsed(time.Now().UTC().UnixMilli()),
		Forest:          forestView(rec.Items),
	}
}

func newRecordsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Preflight record (run) commands",
	}
	cmd.AddCommand(newRecordsListCmd(app))
	cmd.AddCommand(newRecordsShowCmd(app))
	cmd.AddCommand(newRecordsStartCmd(app))
	cmd.AddCommand(newRecordsToggleCmd(app))
	cmd.AddCommand(newRecordsPauseCmd(app))
	cmd.AddCommand(newRecordsResumeCmd(app))
	cmd.AddCommand(newRecordsDeleteCmd(app))
	return cmd
}

func newRecordsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			recs, err := s.Records(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": recs})
		},
	}
}

func newRecordsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show a record with its snapshot forest and current elapsed time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rec, err := s.Record(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": newRecordView(rec)})
		},
	}
}

func newRecordsStartCmd(app *App) *cobra.Command {
	var templateID, pilot string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a run: snapshot the template's items and begin the timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rec, err := s.StartRecord(ctx, templateID, pilot)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": newRecordView(rec)})
		},
	}

	cmd.Flags().StringVar(&templateID, "template", "", "Template id")
	cmd.Flags().StringVar(&pilot, "pilot", "", "Pilot name (default: template's pilot)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newRecordsToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <record-id> <item-id>",
		Short: "Flip one snapshot item, cascading through the snapshot tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rec, err := s.ToggleRecordItem(ctx, args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": newRecordView(rec)})
		},
	}
}

func newRecordsPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <record-id>",
		Short: "Pause a record's timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rec, err := s.PauseRecord(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": newRecordView(rec)})
		},
	}
}

func newRecordsResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <record-id>",
		Short: "Resume a paused record's timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			rec, err := s.ResumeRecord(ctx, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": newRecordView(rec)})
		},
	}
}

func newRecordsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openStore(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			if err := s.DeleteRecord(ctx, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": args[0]}})
		},
	}
}
