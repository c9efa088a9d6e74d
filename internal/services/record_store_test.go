package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"transfer-tracking-service/internal/adapters/lock"
	"transfer-tracking-service/internal/adapters/repositories"
	"transfer-tracking-service/internal/domain"
)

func newTestStore(records ...domain.Record) (*RecordStore, *repositories.MemoryRecordRepository) {
	repo := repositories.NewMemoryRecordRepository(records...)
	return NewRecordStore(repo, lock.NewLocal(0)), repo
}

func TestAppendSingleCheckpointScenario(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	rec := domain.NewRecord("2024-03-01", "ABC1D23", "Ana")
	rec.ID = "r1"
	rec.Checkpoints[domain.FactoryEntry] = "2024-03-01 08:00:00"
	if _, err := store.Append(ctx, rec); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	incomplete := FilterIncomplete(records)
	if len(incomplete) != 1 || incomplete[0].ID != "r1" {
		t.Fatalf("FilterIncomplete() = %v, want [r1]", incomplete)
	}
	if got := FilterFinalized(records); len(got) != 0 {
		t.Fatalf("FilterFinalized() = %v, want none", got)
	}
	if got := domain.DeriveStatus(records[0]); got != domain.FactoryEntry {
		t.Errorf("DeriveStatus() = %q, want %q", got, domain.FactoryEntry)
	}
}

func TestAppendKeepsOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	for i := 0; i < 3; i++ {
		rec := domain.NewRecord("2024-03-01", "ABC1D23", "Ana")
		rec.ID = fmt.Sprintf("r%d", i)
		if _, err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, r := range records {
		if r.ID != fmt.Sprintf("r%d", i) {
			t.Errorf("records[%d].ID = %q", i, r.ID)
		}
	}
}

func TestRewriteLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := domain.NewRecord("2024-03-01", "ABC1D23", "Ana")
	a.Checkpoints[domain.FactoryEntry] = "2024-03-01 08:00:00"
	b := domain.NewRecord("2024-03-02", "XYZ9K88", "")
	b.Checkpoints[domain.DCExit] = "2024-03-02 18:00:00"
	store, _ := newTestStore(a, b)

	first, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RewriteAll(ctx, first); err != nil {
		t.Fatalf("RewriteAll() error: %v", err)
	}
	second, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("len = %d, want %d", len(second), len(first))
	}
	for i := range first {
		for _, c := range domain.Columns() {
			if c.Kind == domain.MetricColumn {
				continue
			}
			if first[i].Field(c.Name) != second[i].Field(c.Name) {
				t.Errorf("record %d field %s = %q, want %q", i, c.Name, second[i].Field(c.Name), first[i].Field(c.Name))
			}
		}
	}
}

func TestLegacyRowsGetStableIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(domain.NewRecord("2023-11-10", "OLD1A11", "Carla"))

	first, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].ID == "" || first[0].ID != second[0].ID {
		t.Fatalf("legacy IDs = %q, %q; want equal and non-empty", first[0].ID, second[0].ID)
	}
}

func TestConcurrentAppendsAreSerialized(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := domain.NewRecord("2024-03-01", fmt.Sprintf("P%02d", i), "Ana")
			rec.ID = fmt.Sprintf("r%02d", i)
			if _, err := store.Append(ctx, rec); err != nil {
				t.Errorf("Append() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	records, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != writers {
		t.Fatalf("records = %d, want %d (lost update)", len(records), writers)
	}
	if repo.Rewrites != writers {
		t.Errorf("rewrites = %d, want %d", repo.Rewrites, writers)
	}
}

func TestEditableFields(t *testing.T) {
	rec := domain.NewRecord("2024-03-01", "", "Ana")
	rec.ID = "r1"
	rec.Checkpoints[domain.FactoryEntry] = "2024-03-01 08:00:00"
	rec.Metrics["dock_wait"] = ""

	got := EditableFields(rec)
	if slices.Contains(got, domain.FieldID) || slices.Contains(got, "dock_wait") {
		t.Errorf("EditableFields() offered id or metric: %v", got)
	}
	if slices.Contains(got, domain.FactoryEntry) || slices.Contains(got, domain.FieldDate) {
		t.Errorf("EditableFields() offered a filled field: %v", got)
	}
	if !slices.Contains(got, domain.FieldPlate) || !slices.Contains(got, domain.DCExit) {
		t.Errorf("EditableFields() missing empty fields: %v", got)
	}
	if got[0] != domain.FieldPlate {
		t.Errorf("EditableFields()[0] = %q, want identity fields first", got[0])
	}
}

func TestApplyEditIsFillOnly(t *testing.T) {
	rec := domain.NewRecord("2024-03-01", "ABC1D23", "Ana")
	rec.Checkpoints[domain.FactoryEntry] = "2024-03-01 08:00:00"

	updated, applied := ApplyEdit(rec, map[string]string{
		domain.FactoryEntry: "2024-03-01 09:00:00",
		domain.FactoryDock:  "2024-03-01 08:15:00",
		domain.FieldPlate:   "OTHER",
		domain.LoadStart:    "   ",
		"dock_wait":         "99:99",
		"no_such_field":     "x",
	})

	if !slices.Equal(applied, []string{domain.FactoryDock}) {
		t.Fatalf("applied = %v, want [%s]", applied, domain.FactoryDock)
	}
	if updated.Checkpoint(domain.FactoryEntry) != "2024-03-01 08:00:00" {
		t.Errorf("filled checkpoint overwritten: %q", updated.Checkpoint(domain.FactoryEntry))
	}
	if updated.Plate != "ABC1D23" {
		t.Errorf("filled plate overwritten: %q", updated.Plate)
	}
	if updated.Metrics["dock_wait"] != "00:15" {
		t.Errorf("dock_wait = %q, want recomputed 00:15", updated.Metrics["dock_wait"])
	}
	if rec.Checkpoint(domain.FactoryDock) != "" {
		t.Error("ApplyEdit() mutated its input")
	}

	again, applied := ApplyEdit(updated, map[string]string{domain.FactoryDock: "2024-03-01 08:30:00"})
	if len(applied) != 0 || again.Checkpoint(domain.FactoryDock) != "2024-03-01 08:15:00" {
		t.Errorf("second edit changed a filled field: applied=%v value=%q", applied, again.Checkpoint(domain.FactoryDock))
	}
}

func TestSummarize(t *testing.T) {
	a := domain.NewRecord("", "A", "")
	b := domain.NewRecord("", "B", "")
	b.Checkpoints[domain.LoadStart] = "2024-03-01 09:00:00"
	c := domain.NewRecord("", "C", "")
	c.Checkpoints[domain.DCExit] = "2024-03-01 19:00:00"

	s := Summarize([]domain.Record{a, b, c})
	if s.Total != 3 || s.InOperation != 2 || s.Finalized != 1 {
		t.Errorf("Summarize() = %+v", s)
	}
	if s.ByStatus[domain.StatusNotStarted] != 1 || s.ByStatus[domain.LoadStart] != 1 || s.ByStatus[domain.DCExit] != 1 {
		t.Errorf("ByStatus = %v", s.ByStatus)
	}
}
