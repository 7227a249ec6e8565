package chain

import (
	"errors"
	"math/big"
	"strings"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Chain holds all metadata for a single EVM chain.
type Chain struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ChainID        int64    `json:"chain_id"`
	NativeCurrency string   `json:"native_currency"`
	RPCs           []string `json:"rpcs"`
	Explorer       string   `json:"explorer"`
	Testnet        bool     `json:"testnet"`
}

// ID returns the chain ID as a big.Int for transaction signing.
func (c *Chain) ID() *big.Int {
	return big.NewInt(c.ChainID)
}

// TxURL returns the explorer link for a transaction hash.
func (c *Chain) TxURL(hash string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/tx/" + hash
}

// AddressURL returns the explorer link for an address.
func (c *Chain) AddressURL(addr string) string {
	if c.Explorer == "" {
		return ""
	}
	return c.Explorer + "/address/" + addr
}

// Registry is the chain registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry creates and returns the registry of supported chains.
func NewRegistry() *Registry {
	return NewRegistryFrom(allChains())
}

// NewRegistryFrom builds a registry over the given chains.
func NewRegistryFrom(chains []Chain) *Registry {
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every chain in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// GetByName finds a chain by its slug name (e.g. "holesky").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "holesky", DisplayName: "Holesky testnet", ChainID: 17000,
			NativeCurrency: "ETH", Testnet: true,
			RPCs: []string{
				"https://ethereum-holesky-rpc.publicnode.com",
				"https://holesky.drpc.org",
				"https://1rpc.io/holesky",
			},
			Explorer: "https://holesky.etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Sepolia testnet", ChainID: 11155111,
			NativeCurrency: "ETH", Testnet: true,
			RPCs: []string{
				"https://ethereum-sepolia-rpc.publicnode.com",
				"https://sepolia.gateway.tenderly.co",
			},
			Explorer: "https://sepolia.etherscan.io",
		},
		{
			Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532,
			NativeCurrency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia.base.org"},
			Explorer: "https://sepolia.basescan.org",
		},
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1,
			NativeCurrency: "ETH",
			RPCs:           []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			Explorer:       "https://etherscan.io",
		},
	}
}
