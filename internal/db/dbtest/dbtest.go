// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"expensetracker/internal/db"
)

// Open returns a migrated database in t's temp dir, closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gormDB) })

	if err := db.Migrate(gormDB, false, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}
