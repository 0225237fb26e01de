package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	dbpkg "github.com/fafiyusuf/AI-Powered-Study-Pal/internal/data/db"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

const dsnEnv = "TEST_POSTGRES_DSN"

var (
	dbOnce sync.Once
	testDB *gorm.DB
	dbErr  error
)

// Logger returns a warn-level logger for tests.
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

// DB connects once per test binary and migrates the schema. Tests are
// skipped when TEST_POSTGRES_DSN is unset.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	dbOnce.Do(func() {
		testDB, dbErr = dbpkg.Open(context.Background(), dsn, gormLogger.Default.LogMode(gormLogger.Silent))
		if dbErr == nil {
			dbErr = dbpkg.AutoMigrateAll(testDB)
		}
	})
	if dbErr != nil {
		tb.Fatalf("init test db: %v", dbErr)
	}
	return testDB
}

// Tx opens a transaction that is rolled back when the test ends, so every
// test sees an empty schema.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() { tx.Rollback() })
	return tx
}
