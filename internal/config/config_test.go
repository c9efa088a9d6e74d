package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "SHEET_NAME", "LOCK_TIMEOUT", "TZ_OFFSET_HOURS", "SYNC_REPO", "SYNC_TOKEN"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error: %v", err)
	}
	if cfg.StoreBackend != BackendXlsx || cfg.SheetName != "Basae" || cfg.Port != "8080" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.LockTimeout != 10*time.Second {
		t.Errorf("LockTimeout = %v", cfg.LockTimeout)
	}
	if cfg.SyncEnabled() {
		t.Error("sync should be disabled by default")
	}

	ts := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC).In(cfg.Location())
	if ts.Hour() != 8 {
		t.Errorf("default location hour = %d, want 8 (UTC-3)", ts.Hour())
	}
}

func TestFromEnvValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "csv"}},
		{name: "postgres without url", env: map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{name: "bad offset", env: map[string]string{"TZ_OFFSET_HOURS": "x"}},
		{name: "offset out of range", env: map[string]string{"TZ_OFFSET_HOURS": "20"}},
		{name: "bad timeout", env: map[string]string{"LOCK_TIMEOUT": "soon"}},
		{name: "sync without token", env: map[string]string{"SYNC_REPO": "acme/logistics", "SYNC_TOKEN": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("FromEnv() error = nil, want error")
			}
		})
	}
}
