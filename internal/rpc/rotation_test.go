package rpc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotationAdvancesPerChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotation.json")

	for want := range uint64(3) {
		n, err := rpc.NewRotation(path).Next(17000)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err := rpc.NewRotation(path).Next(11155111)
	require.NoError(t, err)
	assert.Zero(t, n, "each chain has its own counter")
}

func TestRotationRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotation.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	rot := rpc.NewRotation(path)
	n, err := rot.Next(17000)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = rot.Next(17000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}
