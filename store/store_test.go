package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/etfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]etfx.Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]etfx.Store{
		"memory": NewMemory(),
		"dir":    NewDir(filepath.Join(t.TempDir(), "state")),
		"sqlite": db,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(string(etfx.Comparator))
			assert.ErrorIs(t, err, etfx.ErrNotFound)

			require.NoError(t, s.Set(string(etfx.Comparator), []byte(`{"a":1}`)))
			require.NoError(t, s.Set(string(etfx.Comparator), []byte(`{"a":2}`)))
			got, err := s.Get(string(etfx.Comparator))
			require.NoError(t, err)
			assert.JSONEq(t, `{"a":2}`, string(got))

			// keys are independent.
			_, err = s.Get(string(etfx.Analyzer))
			assert.ErrorIs(t, err, etfx.ErrNotFound)

			require.NoError(t, s.Clear(string(etfx.Comparator)))
			_, err = s.Get(string(etfx.Comparator))
			assert.ErrorIs(t, err, etfx.ErrNotFound)

			// clearing twice is fine.
			assert.NoError(t, s.Clear(string(etfx.Comparator)))
		})
	}
}

func TestDir_InvalidKey(t *testing.T) {
	d := NewDir(t.TempDir())
	assert.Error(t, d.Set("../escape", []byte("x")))
	_, err := d.Get("a/b")
	assert.Error(t, err)
}

func TestDir_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir)
	require.NoError(t, d.Set("k", []byte("v")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
}

func TestSQLite_Persistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("k", []byte("v")))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
