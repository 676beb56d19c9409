package indexstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/reinfect/internal/core/domain"
)

// MockIndexService implements driving.IndexService for testing.
type MockIndexService struct {
	StatsResult domain.IndexStats
	Err         error
	calls       int
}

func (m *MockIndexService) Fetch(_ context.Context, _ []string, _ int) (int, error) {
	return 0, nil
}

func (m *MockIndexService) ImportCSV(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (m *MockIndexService) Build(_ context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

func (m *MockIndexService) Stats(_ context.Context) (domain.IndexStats, error) {
	m.calls++
	return m.StatsResult, m.Err
}

func load(t *testing.T, v *View) {
	t.Helper()
	cmd := v.Init()
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestView_Ready(t *testing.T) {
	mock := &MockIndexService{StatsResult: domain.IndexStats{
		Abstracts: 120,
		Chunks:    480,
		Embedded:  480,
		BuiltAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
	view := NewView(nil, nil, mock)

	load(t, view)

	output := view.View()
	assert.Contains(t, output, "Abstracts:  120")
	assert.Contains(t, output, "Chunks:     480")
	assert.Contains(t, output, "Built at:")
	assert.Contains(t, output, "Ready for retrieval.")
	assert.Equal(t, 480, view.Stats().Embedded)
}

func TestView_NotReady(t *testing.T) {
	view := NewView(nil, nil, &MockIndexService{StatsResult: domain.IndexStats{Abstracts: 10}})

	load(t, view)

	output := view.View()
	assert.Contains(t, output, "Not ready")
	assert.NotContains(t, output, "Built at:")
}

func TestView_Error(t *testing.T) {
	view := NewView(nil, nil, &MockIndexService{Err: errors.New("database locked")})

	load(t, view)

	assert.Contains(t, view.View(), "Error: database locked")
}

func TestView_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)

	load(t, view)

	assert.Contains(t, view.View(), ErrNoIndexService.Error())
}

func TestView_Loading(t *testing.T) {
	view := NewView(nil, nil, &MockIndexService{})

	view.Init()

	assert.Contains(t, view.View(), "Loading...")
}

func TestView_Refresh(t *testing.T) {
	mock := &MockIndexService{}
	view := NewView(nil, nil, mock)
	load(t, view)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	view.Update(cmd())

	assert.Equal(t, 2, mock.calls)
}

func TestView_Esc(t *testing.T) {
	view := NewView(nil, nil, nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
