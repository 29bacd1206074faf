package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RoundTripAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := OpenStores(dir, BackendSQLite, false)
	require.NoError(t, err)
	require.NoError(t, st.Load())
	require.NoError(t, st.Media.Put("k1", []byte(`{"a":1}`)))
	require.NoError(t, st.Media.Put("k1", []byte(`{"a":2}`)))
	require.NoError(t, st.Places.Put("k1", []byte(`"other"`)))
	require.NoError(t, st.Close())

	st2, err := OpenStores(dir, BackendSQLite, false)
	require.NoError(t, err)
	defer st2.Close()

	b, ok, err := st2.Media.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(b))

	// namespace 之间互不可见。
	b, ok, err = st2.Places.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"other"`, string(b))

	_, ok, err = st2.Coords.Get("k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_ReadOnlyMissingFile(t *testing.T) {
	dir := t.TempDir()

	st, err := OpenStores(dir, BackendSQLite, true)
	require.NoError(t, err)
	defer st.Close()

	_, ok, err := st.Media.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, st.Media.Put("k", []byte(`1`)), ErrReadOnly)

	_, err = os.Stat(filepath.Join(dir, "cache.db"))
	assert.True(t, os.IsNotExist(err), "dry-run 不应创建数据库文件")
}

func TestSQLiteStore_CorruptIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.db"), []byte("definitely not a sqlite database, just some bytes padding padding padding padding padding padding padding padding padding padding"), 0o644))

	_, err := OpenStores(dir, BackendSQLite, false)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err), "期望 CorruptError，实际：%v", err)
}
