package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB opens an in-memory sqlite database migrated for the given entities.
// TranslateError keeps gorm.ErrDuplicatedKey working like the postgres setup;
// a single connection keeps every goroutine on the same in-memory database.
func OpenDB(t *testing.T, entities ...any) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open in-memory db")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(entities...), "migrate tables")
	return gdb
}
