package database

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/sangkips/vendas-api/internal/config"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database selected by cfg.Driver
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return NewPostgresDB(cfg, debug)
	case DriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath, debug)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormConfig(debug bool) *gorm.Config {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Sale lines reference products by id only; deleting a product must
		// not cascade into, or be blocked by, the sale ledger.
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// NewSQLiteDB opens a SQLite database at path (":memory:" for a private
// in-memory database). SQLite allows a single writer, so the pool is pinned
// to one connection and concurrent transactions queue on it.
func NewSQLiteDB(path string, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(debug))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Printf("Using SQLite database at %s", path)
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Inventory
		&entity.Product{},
		&entity.Packaging{},

		// Sale ledger
		&entity.Sale{},
		&entity.SaleItem{},

		// System entities
		&entity.IdempotencyKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultData creates an empty packaging record for every known
// packaging type that has none yet, priced from costs.
func SeedDefaultData(db *gorm.DB, costs map[enum.PackagingType]decimal.Decimal) error {
	log.Println("Seeding default data...")

	for _, t := range enum.PackagingTypes() {
		var count int64
		if err := db.Model(&entity.Packaging{}).Where("type = ?", t).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count packaging %s: %w", t, err)
		}
		if count > 0 {
			continue
		}

		packaging := entity.Packaging{Type: t, Price: costs[t]}
		if err := db.Create(&packaging).Error; err != nil {
			log.Printf("Warning: failed to create packaging %s: %v", t, err)
		}
	}

	log.Println("Default data seeding completed")
	return nil
}
