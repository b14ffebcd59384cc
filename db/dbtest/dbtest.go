// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"mediacat/db"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns an empty database living in the test's temp dir
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	file := filepath.Join(t.TempDir(), "test.db")
	gdb, err := db.Open(sqlite.Open(db.SQLiteDSN(file)))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
