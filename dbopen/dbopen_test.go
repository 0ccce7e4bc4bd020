package dbopen_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/copymd/dbopen"
)

func TestOpenMemory_Pragmas(t *testing.T) {
	db := dbopen.OpenMemory(t)

	var fk, busy int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 1, fk)
	assert.Equal(t, 10_000, busy)
}

func TestOpen_MkdirAllAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "settings.db")
	db, err := dbopen.Open(path,
		dbopen.WithMkdirAll(),
		dbopen.WithBusyTimeout(500),
		dbopen.WithSchema(`CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	_, err = db.Exec(`INSERT INTO kv VALUES ('a', 'b')`)
	require.NoError(t, err)
}

func TestOpen_BadSchema(t *testing.T) {
	_, err := dbopen.Open(":memory:", dbopen.WithSchema("NOT SQL"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbopen: exec schema")
}

func TestIsBusy(t *testing.T) {
	assert.False(t, dbopen.IsBusy(nil))
	assert.False(t, dbopen.IsBusy(errors.New("no such table")))
	assert.True(t, dbopen.IsBusy(errors.New("prefix: SQLITE_BUSY (5)")))
	assert.True(t, dbopen.IsBusy(errors.New("database is locked")))
	assert.True(t, dbopen.IsBusy(errors.New("database table is locked")))
}

func TestRunTx(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(`CREATE TABLE kv (k TEXT PRIMARY KEY)`))
	ctx := context.Background()

	require.NoError(t, dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv VALUES ('1')`)
		return err
	}))

	sentinel := errors.New("rollback me")
	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error {
		_, _ = tx.Exec(`INSERT INTO kv VALUES ('2')`)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, dbopen.RunTx(cancelled, db, func(*sql.Tx) error { return nil }))
}
