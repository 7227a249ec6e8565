package contract_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

func newRegistry(t *testing.T) (*contract.Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contracts.json")
	return contract.NewRegistry(path), path
}

func TestNewRegistrySeededWithDefaults(t *testing.T) {
	reg, _ := newRegistry(t)

	v, err := reg.Get("vesting", "holesky")
	require.NoError(t, err)
	assert.Equal(t, contract.VestingAddress, v.Address)
	assert.Equal(t, contract.BuiltinVesting, v.Kind)

	m, err := reg.Get("minter", "holesky")
	require.NoError(t, err)
	assert.Equal(t, contract.MinterAddress, m.Address)

	assert.Len(t, reg.All(), 2)
}

func TestRegistryAddAndGet(t *testing.T) {
	reg, _ := newRegistry(t)

	require.NoError(t, reg.Add(&contract.Entry{
		Name:    "usdc",
		Network: "Ethereum",
		Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		ABI:     []contract.ABIEntry{{Name: "balanceOf", Type: "function"}},
	}))

	got, err := reg.Get("usdc", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "ethereum", got.Network, "network is lower-cased")
	assert.Equal(t, usdc, got.Address, "address is checksummed")
	assert.Len(t, got.ABI, 1)
}

func TestRegistryAddValidates(t *testing.T) {
	reg, _ := newRegistry(t)
	assert.Error(t, reg.Add(&contract.Entry{Name: "x", Network: "holesky", Address: "0x123"}))
	assert.Error(t, reg.Add(&contract.Entry{Name: "", Network: "holesky", Address: usdc}))
	assert.Error(t, reg.Add(&contract.Entry{Name: "x", Network: "", Address: usdc}))
}

func TestRegistryGetNotFound(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Get("nonexistent", "ethereum")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)

	_, err = reg.Get("vesting", "sepolia")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
}

func TestRegistryAddOverwritesExisting(t *testing.T) {
	reg, _ := newRegistry(t)
	other := "0x0000000000000000000000000000000000000001"

	require.NoError(t, reg.Add(&contract.Entry{Name: "vesting", Network: "holesky", Address: other, Kind: contract.BuiltinVesting}))

	got, err := reg.Get("vesting", "holesky")
	require.NoError(t, err)
	assert.Equal(t, other, got.Address)
}

func TestRegistryGetByName(t *testing.T) {
	reg, _ := newRegistry(t)
	require.NoError(t, reg.Add(&contract.Entry{Name: "vesting", Network: "sepolia", Address: usdc, Kind: contract.BuiltinVesting}))

	got := reg.GetByName("vesting")
	require.Len(t, got, 2)
	assert.Equal(t, "holesky", got[0].Network)
	assert.Equal(t, "sepolia", got[1].Network)
	assert.Empty(t, reg.GetByName("nothing"))
}

func TestRegistryRemove(t *testing.T) {
	reg, _ := newRegistry(t)

	require.NoError(t, reg.Remove("minter", "holesky"))
	_, err := reg.Get("minter", "holesky")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)

	_, err = reg.Get("vesting", "holesky")
	assert.NoError(t, err, "other entries untouched")

	assert.ErrorIs(t, reg.Remove("minter", "holesky"), contract.ErrContractNotFound)
}

func TestRegistryLoadNonExistentFile(t *testing.T) {
	reg, _ := newRegistry(t)
	require.NoError(t, reg.Load())
	assert.Len(t, reg.All(), 2)
}

func TestRegistryLoadCorruptJSON(t *testing.T) {
	reg, path := newRegistry(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err := reg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contracts.json")
}

func TestRegistrySaveAndReload(t *testing.T) {
	reg, path := newRegistry(t)
	require.NoError(t, reg.Add(&contract.Entry{Name: "usdc", Network: "ethereum", Address: usdc,
		ABI: contract.MustParseFragments("function balanceOf(address who) view returns (uint256)")}))
	require.NoError(t, reg.Remove("minter", "holesky"))
	require.NoError(t, reg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	var raw []map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)

	reg2 := contract.NewRegistry(path)
	require.NoError(t, reg2.Load())
	got, err := reg2.Get("usdc", "ethereum")
	require.NoError(t, err)
	require.Len(t, got.ABI, 1)
	assert.Equal(t, "balanceOf", got.ABI[0].Name)

	_, err = reg2.Get("minter", "holesky")
	assert.ErrorIs(t, err, contract.ErrContractNotFound, "removed default stays removed")
}

func TestEntryEntries(t *testing.T) {
	reg, _ := newRegistry(t)
	v, err := reg.Get("vesting", "holesky")
	require.NoError(t, err)

	entries, err := v.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	custom := &contract.Entry{Name: "c", Network: "holesky", Address: usdc, Kind: contract.BuiltinVesting,
		ABI: contract.MustParseFragments("function ping() external")}
	entries, err = custom.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1, "explicit ABI wins over kind")

	_, err = (&contract.Entry{Name: "bare"}).Entries()
	assert.ErrorIs(t, err, contract.ErrNoABI)

	_, err = (&contract.Entry{Name: "odd", Kind: "unknown-kind"}).Entries()
	assert.ErrorIs(t, err, contract.ErrNoABI)
}
