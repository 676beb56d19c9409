package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, ConfigFile), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "azure"))
	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("flag", true))
	require.NoError(t, store.Set("server.cors_origins", []string{"http://localhost:3000"}))

	assert.Equal(t, "azure", store.GetString("llm.provider"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.True(t, store.GetBool("flag"))
	assert.Equal(t, []string{"http://localhost:3000"}, store.GetStringSlice("server.cors_origins"))

	// Wrong types fall back to zero values.
	assert.Empty(t, store.GetString("retrieval.top_k"))
	assert.Zero(t, store.GetInt("llm.provider"))
	assert.False(t, store.GetBool("llm.provider"))
	assert.Nil(t, store.GetStringSlice("flag"))

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("index.chunk_size", 500))
	require.NoError(t, store.Set("server.cors_origins", []string{"a", "b"}))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[llm]")
	assert.Contains(t, string(raw), "[index]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reloaded.GetString("llm.provider"))
	assert.Equal(t, "llama3.2", reloaded.GetString("llm.model"))
	assert.Equal(t, 500, reloaded.GetInt("index.chunk_size"))
	assert.Equal(t, []string{"a", "b"}, reloaded.GetStringSlice("server.cors_origins"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_SetConflictRollsBack(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm", "flat"))

	err = store.Set("llm.provider", "openai")
	require.Error(t, err)

	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
	assert.Equal(t, "flat", store.GetString("llm"))
}

func TestConfigStore_SetUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
	_, ok := store.Get("channel")
	assert.False(t, ok)
}

func TestConfigStore_LoadPicksUpExternalEdits(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("artifacts.dir", "model"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[artifacts]\ndir = \"/srv/model\"\n"), 0600))
	require.NoError(t, store.Load())

	assert.Equal(t, "/srv/model", store.GetString("artifacts.dir"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", i)
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()

	_, ok := store.Get("retrieval.top_k")
	assert.True(t, ok)
}

func TestNestKeys(t *testing.T) {
	nested, err := nestKeys(map[string]any{
		"a.b.c": 1,
		"a.d":   "x",
		"e":     true,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": 1},
			"d": "x",
		},
		"e": true,
	}, nested)

	_, err = nestKeys(map[string]any{"a": 1, "a.b": 2})
	assert.Error(t, err)
}
