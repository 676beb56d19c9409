package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestServe_FailsWithoutIndex(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	indexErr = domain.ErrIndexNotFound

	_, err := execute(t, nil, "serve", "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestMCPServe_FailsWithoutIndex(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	indexErr = domain.ErrIndexNotFound

	_, err := execute(t, nil, "mcp", "serve")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestRequireIndex(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	assert.NoError(t, requireIndex())

	indexErr = domain.ErrIndexNotFound
	err := requireIndex()
	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	assert.Contains(t, err.Error(), "cannot serve")
}
