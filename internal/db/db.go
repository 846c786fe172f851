package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"expensetracker/internal/config"
	"expensetracker/internal/model"
)

// Models lists every table owned by the application, in creation order.
var Models = []interface{}{
	&model.User{},
	&model.Expense{},
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// Surface unique-index violations as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	}
}

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, ping(db)
}

// NewSQLite opens a file-backed SQLite database, creating its directory if needed.
func NewSQLite(path string) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, ping(db)
}

// Open connects to the store selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	default:
		return NewMySQL(cfg.MySQLDSN)
	}
}

// Migrate creates or updates the schema. With reset set, existing tables are dropped first.
func Migrate(db *gorm.DB, reset bool, log *zap.Logger) error {
	if reset {
		log.Warn("dropping all tables")
		for i := len(Models) - 1; i >= 0; i-- {
			if err := db.Migrator().DropTable(Models[i]); err != nil {
				log.Warn("drop table failed", zap.Error(err))
			}
		}
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
