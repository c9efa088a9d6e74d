// Package app builds the concrete adapters selected by configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"transfer-tracking-service/internal/adapters/lock"
	"transfer-tracking-service/internal/adapters/remotesync"
	"transfer-tracking-service/internal/adapters/repositories"
	"transfer-tracking-service/internal/config"
	"transfer-tracking-service/internal/platform/db"
	"transfer-tracking-service/internal/ports"
	"transfer-tracking-service/internal/services"
)

// App holds the wired tracker and whatever must be closed on shutdown.
type App struct {
	Repo    ports.RecordRepository
	Store   *services.RecordStore
	Tracker *services.Tracker
	DB      *sql.DB

	closers []func() error
}

// New opens the configured medium, lock and remote sync.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	repo, err := a.openRepository(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	writeLock, err := a.openLock(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var sync ports.RemoteSync
	if cfg.SyncEnabled() {
		gh, err := remotesync.NewGitHubSync(remotesync.GitHubConfig{
			Repo:   cfg.SyncRepo,
			Branch: cfg.SyncBranch,
			Path:   cfg.SyncPath,
			Token:  cfg.SyncToken,
			Sheet:  cfg.SheetName,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		sync = gh
	}

	a.Store = services.NewRecordStore(repo, writeLock)
	a.Tracker = services.NewTracker(a.Store, sync, cfg.Location())

	log.Printf("app ready: backend=%s lock=%s sync=%t", cfg.StoreBackend, lockKind(cfg), cfg.SyncEnabled())
	return a, nil
}

func (a *App) openRepository(ctx context.Context, cfg config.Config) (ports.RecordRepository, error) {
	switch cfg.StoreBackend {
	case config.BackendSqlite:
		sqlDB, err := db.OpenSqlite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB.Close)
		if err := repositories.InitSchema(ctx, sqlDB, repositories.SqliteDialect); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return repositories.NewSqliteRecordRepository(sqlDB), nil
	case config.BackendPostgres:
		sqlDB, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.DB = sqlDB
		a.closers = append(a.closers, sqlDB.Close)
		if err := repositories.InitSchema(ctx, sqlDB, repositories.PostgresDialect); err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return repositories.NewPostgresRecordRepository(sqlDB), nil
	default:
		return repositories.NewXlsxRecordRepository(cfg.XlsxPath, cfg.SheetName), nil
	}
}

func (a *App) openLock(ctx context.Context, cfg config.Config) (ports.WriteLock, error) {
	if cfg.RedisURL == "" {
		return lock.NewLocal(cfg.LockTimeout), nil
	}

	rl, err := lock.NewRedis(lock.RedisConfig{URL: cfg.RedisURL, Timeout: cfg.LockTimeout})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.closers = append(a.closers, rl.Close)
	if err := rl.Ping(ctx); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return rl, nil
}

func lockKind(cfg config.Config) string {
	if cfg.RedisURL == "" {
		return "local"
	}
	return "redis"
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("app close: %v", err)
		}
	}
	a.closers = nil
}
