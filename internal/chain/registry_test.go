package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry()

	tests := []struct {
		name    string
		chainID int64
	}{
		{"holesky", 17000},
		{"sepolia", 11155111},
		{"base-sepolia", 84532},
		{"ethereum", 1},
		{"  Holesky ", 17000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, c.ChainID)
			assert.Equal(t, tt.chainID, c.ID().Int64())
		})
	}
}

func TestRegistryGetByChainID(t *testing.T) {
	registry := chain.NewRegistry()
	c, err := registry.GetByChainID(17000)
	require.NoError(t, err)
	assert.Equal(t, "holesky", c.Name)

	_, err = registry.GetByChainID(424242)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	registry := chain.NewRegistry()
	_, err := registry.GetByName("unknownchain")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestAllChainsHaveRPCAndExplorer(t *testing.T) {
	registry := chain.NewRegistry()
	for _, c := range registry.All() {
		t.Run(c.Name, func(t *testing.T) {
			assert.NotEmpty(t, c.RPCs, "chain %s has no RPCs", c.Name)
			assert.NotEmpty(t, c.Explorer, "chain %s has no explorer", c.Name)
		})
	}
}

func TestExplorerLinks(t *testing.T) {
	c, err := chain.NewRegistry().GetByName("holesky")
	require.NoError(t, err)
	assert.Equal(t, "https://holesky.etherscan.io/tx/0xabc", c.TxURL("0xabc"))
	assert.Equal(t, "https://holesky.etherscan.io/address/0xdef", c.AddressURL("0xdef"))

	bare := chain.Chain{Name: "local"}
	assert.Empty(t, bare.TxURL("0xabc"))
}

func TestNewRegistryFrom(t *testing.T) {
	r := chain.NewRegistryFrom([]chain.Chain{{Name: "devnet", DisplayName: "Devnet", ChainID: 31337}})

	c, err := r.GetByChainID(31337)
	require.NoError(t, err)
	assert.Equal(t, "devnet", c.Name)

	_, err = r.GetByName("holesky")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}
