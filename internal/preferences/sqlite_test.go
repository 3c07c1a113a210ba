package preferences

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "preferences.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_GetDefaultsWhenMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	prefs, err := store.Get(context.Background(), "sub:nobody")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), prefs)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrUserKeyRequired)
}

func TestSQLiteStore_SaveAndUpdate(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	prefs := Defaults()
	prefs.Theme = ThemeDark
	require.NoError(t, store.Save(ctx, "sub:dr.lee", prefs))

	got, err := store.Get(ctx, "sub:dr.lee")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, got.Theme)

	got.Interface.CompactMode = true
	require.NoError(t, store.Save(ctx, "sub:dr.lee", got))

	again, err := store.Get(ctx, "sub:dr.lee")
	require.NoError(t, err)
	assert.True(t, again.Interface.CompactMode)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_SaveRejectsInvalid(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	prefs := Defaults()
	prefs.Analysis.DefaultConfidenceThreshold = 2
	assert.Error(t, store.Save(ctx, "sub:dr.lee", prefs))
	assert.ErrorIs(t, store.Save(ctx, "", Defaults()), ErrUserKeyRequired)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	prefs := Defaults()
	prefs.Theme = ThemeSystem
	require.NoError(t, store.Save(ctx, "sub:a", prefs))
	require.NoError(t, store.Delete(ctx, "sub:a"))
	require.NoError(t, store.Delete(ctx, "sub:missing"))
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrUserKeyRequired)

	got, err := store.Get(ctx, "sub:a")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, got.Theme)
}

func TestSQLiteStore_List(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, key := range []string{"sub:a", "sub:b", "sub:c"} {
		require.NoError(t, store.Save(ctx, key, Defaults()))
	}

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, rec := range all {
		assert.NotEmpty(t, rec.UserKey)
		assert.False(t, rec.UpdatedAt.IsZero())
	}

	page, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSQLiteStore_ExportImport(t *testing.T) {
	src := newTestSQLiteStore(t)
	dst := newTestSQLiteStore(t)
	ctx := context.Background()

	dark := Defaults()
	dark.Theme = ThemeDark
	require.NoError(t, src.Save(ctx, "sub:a", dark))
	require.NoError(t, src.Save(ctx, "sub:b", Defaults()))
	require.NoError(t, dst.Save(ctx, "sub:b", Defaults()))

	var buf bytes.Buffer
	require.NoError(t, src.ExportJSON(ctx, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)
	assert.Contains(t, buf.String(), `"count": 2`)

	imported, skipped, err := dst.ImportJSON(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, skipped)

	got, err := dst.Get(ctx, "sub:a")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, got.Theme)
}

func TestSQLiteStore_ImportInvalidJSON(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, _, err := store.ImportJSON(context.Background(), strings.NewReader("{not json"))
	assert.Error(t, err)
}
