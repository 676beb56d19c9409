package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_WithValues(t *testing.T) {
	store := NewConfigStore(WithValues(map[string]any{
		"llm": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o",
		},
		"retrieval": map[string]any{"top_k": int64(5)},
		"pipeline": map[string]any{
			"processors": []any{"chunker", "markup"},
			"markup":     map[string]any{"keep_math": true},
		},
	}))

	assert.Equal(t, "openai", store.GetString("llm.provider"))
	assert.Equal(t, "gpt-4o", store.GetString("llm.model"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"chunker", "markup"}, store.GetStringSlice("pipeline.processors"))
	assert.True(t, store.GetBool("pipeline.markup.keep_math"))

	_, ok := store.Get("llm")
	assert.False(t, ok, "tables are flattened, not stored")
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("index.chunk_size", 500))
	require.NoError(t, store.Set("index.embed_workers", int64(4)))
	require.NoError(t, store.Set("index.chunk_overlap", 50.0))
	require.NoError(t, store.Set("embedding.api_key", "sk-embed"))
	require.NoError(t, store.Set("server.cors_origins", []any{"https://a.example", 7, "https://b.example"}))
	require.NoError(t, store.Set("artifacts.dir", []string{"not", "a", "string"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int", store.GetInt("index.chunk_size"), 500},
		{"int64 from TOML", store.GetInt("index.embed_workers"), 4},
		{"float is not an int", store.GetInt("index.chunk_overlap"), 0},
		{"missing int", store.GetInt("pubmed.max_per_topic"), 0},
		{"string", store.GetString("embedding.api_key"), "sk-embed"},
		{"wrong type string", store.GetString("artifacts.dir"), ""},
		{"missing bool", store.GetBool("pipeline.markup.keep_math"), false},
		{"mixed slice keeps strings", store.GetStringSlice("server.cors_origins"), []string{"https://a.example", "https://b.example"}},
		{"missing slice", store.GetStringSlice("pipeline.processors"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_WithWriteError(t *testing.T) {
	cause := errors.New("disk full")
	store := NewConfigStore(
		WithValues(map[string]any{"llm": map[string]any{"api_version": "2024-06-01"}}),
		WithWriteError(cause),
	)

	assert.ErrorIs(t, store.Set("llm.api_version", "2025-01-01"), cause)
	assert.ErrorIs(t, store.Save(), cause)
	assert.Equal(t, "2024-06-01", store.GetString("llm.api_version"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	for _, k := range []string{"llm.model", "llm.provider", "llm_extra", "pipeline.chunker.overlap", "embedding.model"} {
		require.NoError(t, store.Set(k, "x"))
	}

	assert.Equal(t, []string{"llm.model", "llm.provider"}, store.Keys("llm"))
	assert.Equal(t, []string{"pipeline.chunker.overlap"}, store.Keys("pipeline.chunker"))
	assert.Empty(t, store.Keys("pubmed"))
	assert.Len(t, store.Keys(""), 5)
}

func TestConfigStore_NoPersistence(t *testing.T) {
	store := NewConfigStore()

	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("retrieval.top_k", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("retrieval.top_k")
			_ = store.Keys("retrieval")
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"retrieval.top_k"}, store.Keys("retrieval"))
}
