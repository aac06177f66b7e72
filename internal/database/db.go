package database

import (
	"fmt"

	"invoicer/internal/config"
	"invoicer/internal/logger"
	"invoicer/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection opens the database selected by the configured driver and migrates the
// key-value table.
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("driver %q has no database", cfg.StoreDriver)
	}

	return open(dialector)
}

// OpenSQLite opens (or creates) a sqlite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	return open(sqlite.Open(path))
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&storage.Entry{}); err != nil {
		log := logger.WithComponent("database")
		log.Warn().Err(err).Msg("Failed to auto-migrate key-value table")
	}

	return db, nil
}

// NewStore builds the key-value store for the configured driver.
func NewStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		return storage.NewMemoryStoreWithQuota(cfg.StoreQuotaBytes), nil
	}
	db, err := NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	return storage.NewGormStore(db), nil
}
