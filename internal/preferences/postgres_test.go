package preferences

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	store, err := NewPostgresStore(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = store.Close()
	})
	return store, mock
}

func TestNewPostgresStore_NilDB(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT data FROM user_preferences WHERE user_key = $1")

	mock.ExpectQuery(query).WithArgs("sub:dr.lee").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"theme":"dark"}`)))
	prefs, err := store.Get(ctx, "sub:dr.lee")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, prefs.Theme)
	assert.True(t, prefs.Notifications.Email)

	mock.ExpectQuery(query).WithArgs("sub:new").WillReturnError(sql.ErrNoRows)
	prefs, err = store.Get(ctx, "sub:new")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), prefs)

	mock.ExpectQuery(query).WithArgs("sub:x").WillReturnError(errors.New("connection reset"))
	_, err = store.Get(ctx, "sub:x")
	assert.ErrorContains(t, err, "connection reset")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_preferences")).
		WithArgs("sub:dr.lee", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	prefs := Defaults()
	prefs.Theme = ThemeSystem
	require.NoError(t, store.Save(ctx, "sub:dr.lee", prefs))

	invalid := Defaults()
	invalid.Theme = "neon"
	assert.Error(t, store.Save(ctx, "sub:dr.lee", invalid))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteAndCount(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_preferences WHERE user_key = $1")).
		WithArgs("sub:a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM user_preferences")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	require.NoError(t, store.Delete(ctx, "sub:a"))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ExportImport(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_key, data, created_at, updated_at")).
		WithArgs(maxExportLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"user_key", "data", "created_at", "updated_at"}).
			AddRow("sub:a", []byte(`{"theme":"dark"}`), now, now).
			AddRow("sub:b", []byte(`{"theme":"system"}`), now, now))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	existsQuery := regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM user_preferences WHERE user_key = $1)")
	mock.ExpectQuery(existsQuery).WithArgs("sub:a").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).WithArgs("sub:b").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_preferences")).
		WithArgs("sub:b", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	imported, skipped, err := store.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	require.NoError(t, mock.ExpectationsWereMet())
}
