package app

import (
	"context"
	"path/filepath"
	"testing"
	"transfer-tracking-service/internal/config"
	"transfer-tracking-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
)

func TestNewSqliteWithRedisLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cfg := config.Config{
		StoreBackend:  config.BackendSqlite,
		DBPath:        filepath.Join(t.TempDir(), "app.db"),
		RedisURL:      "redis://" + mr.Addr(),
		TZOffsetHours: -3,
	}

	ctx := context.Background()
	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	res, err := a.Tracker.Save(ctx, domain.NewRecord("2024-03-01", "ABC1D23", "Ana"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	records, err := a.Tracker.List(ctx, "incomplete")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 1 || records[0].ID != res.Record.ID {
		t.Fatalf("records = %+v", records)
	}
}

func TestNewXlsxDefault(t *testing.T) {
	cfg := config.Config{
		StoreBackend: config.BackendXlsx,
		XlsxPath:     filepath.Join(t.TempDir(), "records.xlsx"),
		SheetName:    "Basae",
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close()

	if a.DB != nil {
		t.Error("xlsx backend should not open a database")
	}
	exists, err := a.Store.Exists(context.Background())
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v; want false, nil", exists, err)
	}
}
