// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yatube/backend/internal/config"
	"github.com/yatube/backend/internal/database"
	"gorm.io/gorm"
)

// OpenDB opens a migrated sqlite database in a temp dir that is removed
// when the test finishes
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
