package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"propertyhub_backend/pkg/config"
)

var DB *gorm.DB

// InitDB opens the configured database and stores it in DB.
func InitDB(cfg config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("could not create sqlite directory %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case "postgres", "":
		if cfg.URL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true, // avoids prepared statement clashes behind poolers
		})
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Error),
		PrepareStmt: false,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Printf("Database (%s) connected successfully!", cfg.Driver)
	return nil
}

func GetDB() *gorm.DB {
	return DB
}

// MigrateDatabase creates or updates the tables for the given models.
// AutoMigrate is used for both cases so many2many join tables are created too.
func MigrateDatabase(db *gorm.DB, models ...interface{}) error {
	for _, model := range models {
		existed := db.Migrator().HasTable(model)
		if err := db.AutoMigrate(model); err != nil {
			return err
		}
		if existed {
			log.Printf("Updated table for %T\n", model)
		} else {
			log.Printf("Created table for %T\n", model)
		}
	}
	return nil
}
