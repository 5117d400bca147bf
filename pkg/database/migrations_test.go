package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":    {Data: []byte("SELECT 1;")},
		"002_second.sql":   {Data: []byte("SELECT 1;")},
		"001_first.sql":    {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("ignored")},
		"nested/003_x.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 4)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, 3, migrations[2].Version)
	assert.Equal(t, 10, migrations[3].Version)
}

func TestLoadMigrations_RejectsBadNames(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}})
	assert.ErrorContains(t, err, "invalid migration filename")

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"001_widgets.sql": {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
	}

	m := NewMigrator(db, zap.NewNop())
	require.NoError(t, m.Run(ctx, fsys))
	require.NoError(t, m.Run(ctx, fsys))

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true}, applied)
}

func TestMigrator_FailedMigrationIsNotRecorded(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	m := NewMigrator(db, zap.NewNop())
	err := m.Run(ctx, fstest.MapFS{"001_broken.sql": {Data: []byte("CREATE TABLE (;")}})
	require.Error(t, err)

	applied, err := m.AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}
