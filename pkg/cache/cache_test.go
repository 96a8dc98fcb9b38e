package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfix/esfix/pkg/engine"
)

func TestKeyIncludesLevel(t *testing.T) {
	content := []byte("var x = 1;")
	k1 := Key(content, engine.Level1)
	k2 := Key(content, engine.Level2)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, k1, Key([]byte("var x = 1;"), engine.Level1))
	assert.NotEqual(t, k1, Key([]byte("var x = 2;"), engine.Level1))
}

func TestGetSet(t *testing.T) {
	c := New(Options{})
	key := Key([]byte("var x = 1;"), engine.Level1)

	_, found := c.Get(key)
	assert.False(t, found)

	want := &Result{
		Code:     "const x = 1;",
		Modified: true,
		Changes:  []engine.Change{{Type: "var-to-const", Line: 1}},
	}
	c.Set(key, want)

	got, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, want.Code, got.Code)
	assert.True(t, got.Modified)
	assert.Equal(t, want.Changes, got.Changes)
	assert.Equal(t, 1, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c := New(Options{MaxEntries: 2})
	c.Set("a", &Result{Code: "a"})
	c.Set("b", &Result{Code: "b"})

	// Touch a so b becomes the eviction candidate.
	_, found := c.Get("a")
	require.True(t, found)

	c.Set("c", &Result{Code: "c"})
	assert.Equal(t, 2, c.Len())

	_, found = c.Get("b")
	assert.False(t, found, "least recently used entry should be evicted")
	_, found = c.Get("a")
	assert.True(t, found)
	_, found = c.Get("c")
	assert.True(t, found)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New(Options{})
	c.Set("k1", &Result{Code: "one", Modified: true, Changes: []engine.Change{{Type: "var-to-let", Line: 3}}})
	c.Set("k2", &Result{Code: "two"})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{})
	require.NoError(t, restored.Load(&buf))
	assert.Equal(t, 2, restored.Len())

	got, found := restored.Get("k1")
	require.True(t, found)
	assert.Equal(t, "one", got.Code)
	assert.True(t, got.Modified)
	require.Len(t, got.Changes, 1)
	assert.Equal(t, "var-to-let", got.Changes[0].Type)
}

func TestPersistAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".esfix", "cache.msgpack")

	c := New(Options{})
	c.Set("k", &Result{Code: "cached"})
	require.NoError(t, PersistToFile(c, path))

	loaded := New(Options{})
	require.NoError(t, LoadFromFile(loaded, path))
	got, found := loaded.Get("k")
	require.True(t, found)
	assert.Equal(t, "cached", got.Code)

	// A missing file loads as an empty cache.
	fresh := New(Options{})
	require.NoError(t, LoadFromFile(fresh, filepath.Join(t.TempDir(), "absent.msgpack")))
	assert.Equal(t, 0, fresh.Len())
}
