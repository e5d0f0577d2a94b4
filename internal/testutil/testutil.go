// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/medialib/medialib-go-server/internal/db"
)

var dbCounter atomic.Int64

// SetupTestDB creates an in-memory SQLite database with the schema applied.
// Each call gets its own named database; the shared cache keeps all pooled
// connections of one handle on the same database without leaking state
// between tests.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database
}
