package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	root := t.TempDir()

	a, err := New(filepath.Join(root, "config"))
	require.NoError(t, err)
	a.Settings.SetEnvLookup(nil)
	require.NoError(t, a.Settings.SetDataDir(filepath.Join(root, "data")))
	require.NoError(t, a.Settings.SetArtifactsDir(filepath.Join(root, "model")))
	t.Cleanup(a.Close)
	return a
}

func TestNew_CreatesConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	a, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, a.ConfigDir)
	assert.Equal(t, filepath.Join(dir, "config.toml"), a.Config.Path())
	assert.NotNil(t, a.Settings)
}

func TestStart_DegradesWithoutArtifactsOrProviders(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.Start(context.Background()))

	assert.Nil(t, a.Predictor)
	assert.Nil(t, a.Assessor)
	assert.Nil(t, a.Retriever)
	assert.False(t, a.IndexReady)
	require.NotNil(t, a.Composer)
	require.NotNil(t, a.History)
	require.NotNil(t, a.Indexer)
	assert.NotEmpty(t, a.Warnings)

	stats, err := a.Indexer.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
}

func TestStart_EmptyEvidenceStoreBlocksServing(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))

	assert.False(t, a.IndexReady)
	require.Error(t, a.IndexErr)
	assert.ErrorIs(t, a.IndexErr, domain.ErrIndexNotFound)
	assert.ErrorIs(t, a.RequireIndex(), domain.ErrIndexNotFound)
}

func TestRequireIndex(t *testing.T) {
	a := &App{IndexReady: true}
	assert.NoError(t, a.RequireIndex())

	a = &App{}
	assert.ErrorIs(t, a.RequireIndex(), domain.ErrIndexNotFound)
}

func TestStart_ChatWithoutLLMIsLoggedOnce(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.Start(context.Background()))

	exp := a.Composer.Chat(context.Background(), "Does vaccination lower reinfection risk?")
	require.NotNil(t, exp)
	assert.True(t, exp.Degraded())
	assert.ErrorIs(t, exp.Err, domain.ErrLLMUnavailable)

	entries, err := a.History.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Does vaccination lower reinfection risk?", entries[0].Question)
}

func TestStart_RunsOnce(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.Start(context.Background()))
	store := a.Evidence
	require.NoError(t, a.Start(context.Background()))
	assert.Same(t, store, a.Evidence)
}

func TestClose_NilAndUnstarted(t *testing.T) {
	var nilApp *App
	nilApp.Close()

	a, err := New(t.TempDir())
	require.NoError(t, err)
	a.Close()
}
