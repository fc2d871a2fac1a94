package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the engine's store. The on-device default is a SQLite file in
// WAL mode; postgres is selectable for development parity against the
// platform schema.
func New(driver, dsn string, baseLog *logger.Logger) (*Service, error) {
	dbLog := baseLog.With("component", "db")

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		if dsn == "" {
			dsn = "lumo.db"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("STORE_DRIVER=postgres requires STORE_DSN")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if _, ok := dialector.(*sqlite.Dialector); ok {
		// Single-writer WAL keeps record writes atomic without blocking reads.
		if err := gdb.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
			dbLog.Warn("enable WAL failed", "error", err)
		}
		if err := gdb.Exec("PRAGMA foreign_keys=ON;").Error; err != nil {
			dbLog.Warn("enable foreign keys failed", "error", err)
		}
	}

	return &Service{db: gdb, log: dbLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return AutoMigrate(s.db)
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.Session{},
		&domain.ExerciseAttempt{},
		&domain.SessionOutcomeSummary{},
		&domain.OutboxEntry{},
		&domain.SyncState{},
	)
}
