package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

func TestPromptWatcher_ReloadsOnEdit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	w, err := NewPromptWatcher(store)
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	reloaded := make(chan struct{}, 1)
	w.OnReload(func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Prime the cache with the default.
	_, err = store.Load(driven.PromptChat)
	require.NoError(t, err)

	edited := "edited {{context}} {{question}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat.txt"), []byte(edited), 0600))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	prompt, err := store.Load(driven.PromptChat)
	require.NoError(t, err)
	assert.Equal(t, edited, prompt)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewPromptWatcher_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	w, err := NewPromptWatcher(store)
	require.NoError(t, err)
	defer w.watcher.Close()

	_, err = os.Stat(filepath.Join(dir, "explain.txt"))
	assert.NoError(t, err)
}

func TestIsPromptEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write txt", fsnotify.Event{Name: "chat.txt", Op: fsnotify.Write}, true},
		{"create txt", fsnotify.Event{Name: "chat.txt", Op: fsnotify.Create}, true},
		{"remove txt", fsnotify.Event{Name: "chat.txt", Op: fsnotify.Remove}, true},
		{"rename txt", fsnotify.Event{Name: "chat.txt", Op: fsnotify.Rename}, true},
		{"chmod txt", fsnotify.Event{Name: "chat.txt", Op: fsnotify.Chmod}, false},
		{"readme", fsnotify.Event{Name: "README.md", Op: fsnotify.Write}, false},
		{"editor swap", fsnotify.Event{Name: ".chat.txt.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isPromptEvent(tt.event))
		})
	}
}
