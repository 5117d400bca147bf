package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/conference-requests/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/conference-requests/migrations"
	"github.com/garyjia/conference-requests/pkg/database"
)

// newTestDB opens a migrated in-memory database
func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: database.MemoryPath}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background(), migrations.FS))
	return sqlite.NewDB(db.DB, logger)
}
