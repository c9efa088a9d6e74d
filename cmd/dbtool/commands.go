package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"transfer-tracking-service/internal/adapters/repositories"
	"transfer-tracking-service/internal/adapters/spreadsheet"
	"transfer-tracking-service/internal/app"
	"transfer-tracking-service/internal/config"
	"transfer-tracking-service/internal/domain"
	"transfer-tracking-service/internal/services"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// withApp loads configuration, opens the medium and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, cfg config.Config) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, cfg)
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the table or add missing columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, cfg config.Config) error {
				// SQL media are migrated when opened.
				if a.DB != nil {
					log.Println("Schema ready.")
					return nil
				}
				exists, err := a.Store.Exists(ctx)
				if err != nil {
					return err
				}
				if exists {
					log.Println("Workbook already exists.")
					return nil
				}
				if err := a.Store.RewriteAll(ctx, []domain.Record{}); err != nil {
					return fmt.Errorf("init: %w", err)
				}
				log.Printf("Created workbook path=%q", cfg.XlsxPath)
				return nil
			})
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <json>",
		Short: "Append records from a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, cfg config.Config) error {
				path := cfg.SeedPath
				if len(args) == 1 {
					path = args[0]
				}
				records, err := repositories.ReadSeed(path)
				if err != nil {
					return err
				}
				n, err := appendRecords(ctx, a.Store, records)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				log.Printf("Seeding complete. added=%d", n)
				return nil
			})
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <xlsx>",
		Short: "Append records from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, cfg config.Config) error {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("import: read %q: %w", args[0], err)
				}
				records, err := spreadsheet.Decode(bytes.NewReader(raw), cfg.SheetName)
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				n, err := appendRecords(ctx, a.Store, records)
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				log.Printf("Import complete. added=%d", n)
				return nil
			})
		},
	}
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <xlsx>",
		Short: "Write all records to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, cfg config.Config) error {
				records, err := a.Store.LoadAll(ctx)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				raw, err := spreadsheet.Encode(records, cfg.SheetName)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				if err := os.WriteFile(args[0], raw, 0o644); err != nil {
					return fmt.Errorf("export: write %q: %w", args[0], err)
				}
				log.Printf("Export complete. records=%d path=%q", len(records), args[0])
				return nil
			})
		},
	}
}

func newListCommand() *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print records as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ config.Config) error {
				records, err := a.Tracker.List(ctx, view)
				if err != nil {
					return err
				}
				renderRecords(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", services.ViewAll, "all, incomplete or finalized")
	return cmd
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App, _ config.Config) error {
				s, err := a.Tracker.Summary(ctx)
				if err != nil {
					return err
				}
				renderSummary(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

// appendRecords adds records in one rewrite, skipping IDs already stored.
func appendRecords(ctx context.Context, store *services.RecordStore, incoming []domain.Record) (int, error) {
	added := 0
	_, err := store.Update(ctx, func(records []domain.Record) ([]domain.Record, error) {
		seen := make(map[string]bool, len(records))
		for _, r := range records {
			seen[r.ID] = true
		}
		out := append([]domain.Record(nil), records...)
		for _, r := range incoming {
			if r.ID != "" && seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
			added++
		}
		return out, nil
	})
	return added, err
}

func renderRecords(w io.Writer, records []domain.Record) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	tbl.AppendHeader(table.Row{"ID", "Date", "Plate", "Recorder", "Status", "Transit", "DC total"})
	for _, r := range records {
		tbl.AppendRow(table.Row{
			r.ID,
			r.Date,
			r.Plate,
			r.Recorder,
			domain.DeriveStatus(r),
			r.Metrics["transit_to_dc"],
			r.Metrics["dc_total"],
		})
	}
	tbl.AppendFooter(table.Row{"", "", "", "Total", len(records)})
	tbl.Render()
}

func renderSummary(w io.Writer, s services.Summary) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	tbl.AppendHeader(table.Row{"Status", "Records"})
	statuses := make([]string, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		tbl.AppendRow(table.Row{status, s.ByStatus[status]})
	}
	tbl.AppendSeparator()
	tbl.AppendRow(table.Row{"in operation", s.InOperation})
	tbl.AppendRow(table.Row{"finalized", s.Finalized})
	tbl.AppendFooter(table.Row{"Total", s.Total})
	tbl.Render()
}
