package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)

		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM fsp_tables").Scan(&count))
		assert.Equal(t, 0, count)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestFoldFunction(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rows, err := s.Rows(ctx, "SELECT fsp_fold(?) AS a, fsp_fold(NULL) AS b, fsp_fold(42) AS c", "Straße")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "strasse", rows[0]["a"])
	assert.Nil(t, rows[0]["b"])
	assert.Equal(t, int64(42), rows[0]["c"])
}

func TestRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Exec(ctx, "CREATE TABLE kv (k TEXT, v INTEGER)")
	require.NoError(t, err)
	_, err = s.Exec(ctx, "INSERT INTO kv (k, v) VALUES (?, ?), (?, ?)", "a", 1, "b", nil)
	require.NoError(t, err)

	rows, err := s.Rows(ctx, "SELECT k, v FROM kv ORDER BY k")
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"k": "a", "v": int64(1)},
		{"k": "b", "v": nil},
	}, rows)

	empty, err := s.Rows(ctx, "SELECT k FROM kv WHERE k = ?", "zzz")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = s.Rows(ctx, "SELECT nope FROM kv")
	assert.Error(t, err)
}
