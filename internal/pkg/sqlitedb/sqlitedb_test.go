package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bikonomi.db")

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	assert.FileExists(t, path)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	db, err := Open(ctx, MemoryPath)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db,
		`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT)`,
		`CREATE INDEX IF NOT EXISTS t_v ON t(v)`,
	))
	// 같은 스키마를 다시 적용해도 안전해야 합니다.
	require.NoError(t, Migrate(ctx, db, `CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT)`))

	t.Run("실패하면 전체가 롤백됩니다", func(t *testing.T) {
		err := Migrate(ctx, db,
			`CREATE TABLE u (id INTEGER)`,
			`CREATE TABLE broken (`,
		)
		assert.True(t, apperrors.Is(err, apperrors.System))

		var n int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'u'`).Scan(&n))
		assert.Zero(t, n)
	})
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn(MemoryPath))
	assert.Contains(t, dsn("data/x.db"), "file:data/x.db?")
	assert.Contains(t, dsn("data/x.db"), "journal_mode(WAL)")
}
