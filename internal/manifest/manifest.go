// Package manifest imports contract deployments from a JSON manifest into
// the contract registry.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/contract"
	"github.com/rs/zerolog"
)

// ErrEmpty is returned for a manifest that lists no deployments.
var ErrEmpty = errors.New("manifest lists no contracts")

// maxBody caps manifest and ABI downloads.
const maxBody = 4 << 20

// Manifest is a deployments.json document:
//
//	{"contracts": {"vesting": {"holesky": {"address": "0x...", "kind": "vesting"}}}}
type Manifest struct {
	Contracts map[string]map[string]Deployment `json:"contracts"`
}

// Deployment is one contract on one network. ABIURL, when set, wins over Kind.
type Deployment struct {
	Address string `json:"address"`
	Kind    string `json:"kind,omitempty"`
	ABIURL  string `json:"abi_url,omitempty"`
}

// Result lists what Import registered and what it skipped.
type Result struct {
	Added   []string // "name@network"
	Skipped map[string]error
}

// Importer fetches manifests and writes them into a registry.
type Importer struct {
	reg    *contract.Registry
	client *http.Client
	log    zerolog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Importer) { i.client = c }
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(i *Importer) { i.log = l }
}

// New creates an Importer for reg.
func New(reg *contract.Registry, opts ...Option) *Importer {
	i := &Importer{
		reg:    reg,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Import reads the manifest at source (an http(s) URL or a file path),
// registers every deployment it can resolve and saves the registry.
// Entries with a bad address or an unreachable ABI are skipped.
func (i *Importer) Import(ctx context.Context, source string) (*Result, error) {
	data, err := i.read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Contracts) == 0 {
		return nil, ErrEmpty
	}

	res := &Result{Skipped: make(map[string]error)}
	for _, name := range sortedKeys(m.Contracts) {
		networks := m.Contracts[name]
		for _, network := range sortedKeys(networks) {
			id := name + "@" + strings.ToLower(network)
			e, err := i.entry(ctx, name, network, networks[network])
			if err == nil {
				err = i.reg.Add(e)
			}
			if err != nil {
				i.log.Warn().Err(err).Str("contract", id).Msg("skipping deployment")
				res.Skipped[id] = err
				continue
			}
			res.Added = append(res.Added, id)
		}
	}

	if len(res.Added) > 0 {
		if err := i.reg.Save(); err != nil {
			return res, fmt.Errorf("saving contracts: %w", err)
		}
	}
	return res, nil
}

func (i *Importer) entry(ctx context.Context, name, network string, d Deployment) (*contract.Entry, error) {
	e := &contract.Entry{Name: name, Network: network, Address: d.Address, Kind: d.Kind}
	switch {
	case d.ABIURL != "":
		raw, err := i.read(ctx, d.ABIURL)
		if err != nil {
			return nil, fmt.Errorf("fetching ABI: %w", err)
		}
		if err := json.Unmarshal(raw, &e.ABI); err != nil {
			return nil, fmt.Errorf("parsing ABI from %s: %w", d.ABIURL, err)
		}
		if _, err := contract.BuildABI(e.ABI); err != nil {
			return nil, err
		}
	case d.Kind != "":
		if _, ok := contract.GetBuiltin(d.Kind); !ok {
			return nil, fmt.Errorf("unknown kind %q", d.Kind)
		}
	default:
		if _, ok := contract.GetBuiltin(name); !ok {
			return nil, errors.New("no kind or abi_url")
		}
		e.Kind = name
	}
	return e, nil
}

func (i *Importer) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", source, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
