package repository

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakwell/treeaid/internal/db"
	"github.com/oakwell/treeaid/models"
)

// Repository tests run against a real Postgres with PostGIS, since the
// proximity query and the geometry column cannot be exercised in-memory.
// Set TREEAID_TEST_DSN to run them; they skip otherwise.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TREEAID_TEST_DSN")
	if dsn == "" {
		t.Skip("TREEAID_TEST_DSN not set; skipping repository tests")
	}

	gdb, err := db.Open(dsn)
	require.NoError(t, err)

	err = gdb.Exec("TRUNCATE pictures, trees, users RESTART IDENTITY CASCADE").Error
	require.NoError(t, err)
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email}
	require.NoError(t, gdb.Create(user).Error)
	return user
}
