package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Errors.
var (
	ErrContractNotFound = errors.New("contract not found")
	ErrNoABI            = errors.New("contract has no ABI")
)

// Entry is a stored contract. Kind names a built-in ABI; ABI, when set,
// takes precedence.
type Entry struct {
	Name    string     `json:"name"`
	Network string     `json:"network"`
	Address string     `json:"address"`
	Kind    string     `json:"kind,omitempty"`
	ABI     []ABIEntry `json:"abi,omitempty"`
}

// Entries resolves the ABI of e.
func (e *Entry) Entries() ([]ABIEntry, error) {
	if len(e.ABI) > 0 {
		return e.ABI, nil
	}
	if e.Kind != "" {
		if abi := GetBuiltinABI(e.Kind); abi != nil {
			return abi, nil
		}
		return nil, fmt.Errorf("%w: unknown built-in %q for %s", ErrNoABI, e.Kind, e.Name)
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrNoABI, e.Name, e.Network)
}

// Defaults are the deployed contracts every registry starts with.
func Defaults() []*Entry {
	return []*Entry{
		{Name: BuiltinVesting, Network: "holesky", Address: VestingAddress, Kind: BuiltinVesting},
		{Name: BuiltinMinter, Network: "holesky", Address: MinterAddress, Kind: BuiltinMinter},
	}
}

// Registry stores and retrieves contract entries.
type Registry struct {
	path      string
	contracts map[string]*Entry // key: "name@network"
}

// NewRegistry creates a Registry backed by a JSON file, seeded with Defaults.
func NewRegistry(path string) *Registry {
	r := &Registry{
		path:      path,
		contracts: make(map[string]*Entry),
	}
	for _, e := range Defaults() {
		r.contracts[key(e.Name, e.Network)] = e
	}
	return r
}

// Load reads stored contracts from disk. An existing file replaces the
// seeded defaults, so removing a default sticks.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}

	r.contracts = make(map[string]*Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		r.contracts[key(e.Name, e.Network)] = e
	}
	return nil
}

// Save writes all contracts to disk.
func (r *Registry) Save() error {
	entries := make([]Entry, 0, len(r.contracts))
	for _, e := range r.All() {
		entries = append(entries, *e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add adds or updates a contract entry after validating its address.
func (r *Registry) Add(e *Entry) error {
	if e.Name == "" || e.Network == "" {
		return errors.New("contract name and network are required")
	}
	if !common.IsHexAddress(e.Address) {
		return fmt.Errorf("invalid contract address %q", e.Address)
	}
	e.Address = common.HexToAddress(e.Address).Hex()
	e.Network = strings.ToLower(e.Network)
	r.contracts[key(e.Name, e.Network)] = e
	return nil
}

// Get returns a contract by name and network.
func (r *Registry) Get(name, network string) (*Entry, error) {
	e, ok := r.contracts[key(name, strings.ToLower(network))]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrContractNotFound, name, network)
	}
	return e, nil
}

// GetByName returns all entries for a contract name across all networks.
func (r *Registry) GetByName(name string) []*Entry {
	var out []*Entry
	for _, e := range r.All() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// All returns all registered contracts sorted by network then name.
func (r *Registry) All() []*Entry {
	out := make([]*Entry, 0, len(r.contracts))
	for _, e := range r.contracts {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Remove deletes a contract entry.
func (r *Registry) Remove(name, network string) error {
	k := key(name, strings.ToLower(network))
	if _, ok := r.contracts[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrContractNotFound, name, network)
	}
	delete(r.contracts, k)
	return nil
}

func key(name, network string) string {
	return name + "@" + network
}
