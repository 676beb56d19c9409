package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

func TestHistoryCmd_HasLimitFlag(t *testing.T) {
	flag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "20", flag.DefValue)
}

func TestHistoryCmd_Empty(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "history")

	require.NoError(t, err)
	assert.Equal(t, 20, ts.History.LastLimit)
	assert.Contains(t, out, "No questions asked yet.")
}

func TestHistoryCmd_Entries(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.History.Entries = []domain.QnALogEntry{
		{Timestamp: time.Now(), Question: "Can I be reinfected?", Answer: "Yes, it is possible."},
		{Timestamp: time.Now(), Question: "Do boosters help?", Answer: "They reduce risk."},
	}

	out, err := execute(t, nil, "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.History.LastLimit)
	assert.Contains(t, out, "Q: Can I be reinfected?")
	assert.Contains(t, out, "A: They reduce risk.")
}

func TestHistoryImportCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, nil, "history", "import-legacy", "old.json")

	require.NoError(t, err)
	assert.Equal(t, "old.json", ts.History.ImportPath)
	assert.Contains(t, out, "Imported 4 entries from old.json.")
}

func TestHistoryCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	historyService = nil

	_, err := execute(t, nil, "history")

	assert.ErrorIs(t, err, errHistoryNotConfigured)
}
