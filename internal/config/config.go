package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendXlsx     = "xlsx"
	BackendSqlite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Port          string
	StoreBackend  string
	XlsxPath      string
	SheetName     string
	DBPath        string
	DatabaseURL   string
	RedisURL      string
	LockTimeout   time.Duration
	TZOffsetHours int
	SeedPath      string

	SyncRepo   string
	SyncBranch string
	SyncPath   string
	SyncToken  string
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         Get("PORT", "8080"),
		StoreBackend: strings.ToLower(Get("STORE_BACKEND", BackendXlsx)),
		XlsxPath:     Get("XLSX_PATH", "data/Controle Transferencia.xlsx"),
		SheetName:    Get("SHEET_NAME", "Basae"),
		DBPath:       Get("DB_PATH", "data/app.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		SeedPath:     Get("SEED_PATH", "data/seeds/records.json"),
		SyncRepo:     os.Getenv("SYNC_REPO"),
		SyncBranch:   Get("SYNC_BRANCH", "main"),
		SyncPath:     Get("SYNC_PATH", "Controle Transferencia.xlsx"),
		SyncToken:    os.Getenv("SYNC_TOKEN"),
	}

	timeout, err := time.ParseDuration(Get("LOCK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("config: LOCK_TIMEOUT: %w", err)
	}
	cfg.LockTimeout = timeout

	offset, err := strconv.Atoi(Get("TZ_OFFSET_HOURS", "-3"))
	if err != nil {
		return Config{}, fmt.Errorf("config: TZ_OFFSET_HOURS: %w", err)
	}
	if offset < -12 || offset > 14 {
		return Config{}, fmt.Errorf("config: TZ_OFFSET_HOURS %d out of range", offset)
	}
	cfg.TZOffsetHours = offset

	switch cfg.StoreBackend {
	case BackendXlsx, BackendSqlite:
	case BackendPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return Config{}, errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.SyncEnabled() && strings.TrimSpace(cfg.SyncToken) == "" {
		return Config{}, errors.New("config: SYNC_TOKEN is required when SYNC_REPO is set")
	}

	return cfg, nil
}

func (c Config) SyncEnabled() bool { return strings.TrimSpace(c.SyncRepo) != "" }

// Location is the fixed-offset zone used when registering checkpoints.
func (c Config) Location() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TZOffsetHours), c.TZOffsetHours*60*60)
}
