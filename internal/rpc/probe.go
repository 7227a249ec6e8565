package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
)

// ErrWrongChain is returned when endpoints answer but none serves the
// expected chain.
var ErrWrongChain = errors.New("no endpoint serves the expected chain")

// probeTimeout bounds a single endpoint probe.
const probeTimeout = 5 * time.Second

// Probe pings all URLs in parallel and records latency, head block and
// chain ID for each.
func Probe(ctx context.Context, urls []string) []Endpoint {
	endpoints := make([]Endpoint, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			endpoints[idx] = probeOne(ctx, u)
		}(i, url)
	}

	wg.Wait()
	return endpoints
}

func probeOne(ctx context.Context, url string) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ep := Endpoint{URL: url, Checked: true}
	c := chain.NewEVMClient(url)

	latency, block, err := c.Ping(ctx)
	ep.Latency = latency
	ep.BlockNumber = block
	if err != nil {
		return ep
	}

	id, err := c.ChainID(ctx)
	if err != nil {
		return ep
	}
	ep.ChainID = id.Int64()
	ep.Healthy = true
	return ep
}

// Selection is the outcome of Select.
type Selection struct {
	URL       string
	ChainID   int64
	Endpoints []Endpoint // every probe result, for diagnostics
}

// TurnFunc returns the round-robin turn for a chain.
type TurnFunc func(chainID int64) uint64

// Select probes urls and picks one that serves chainID using algo. A zero
// chainID adopts the chain of the first healthy endpoint in urls order.
// turn is consulted once the chain is known, for round-robin only; nil
// means turn 0. It returns ErrNoHealthyRPC when nothing answers and
// ErrWrongChain when endpoints answer for a different chain.
func Select(ctx context.Context, urls []string, algo Algorithm, chainID int64, turn TurnFunc) (*Selection, error) {
	if len(urls) == 0 {
		return nil, ErrNoHealthyRPC
	}
	if algo == "" {
		algo = AlgorithmFastest
	}

	probed := Probe(ctx, urls)
	sel := &Selection{Endpoints: probed}

	var first *Endpoint
	for i := range probed {
		if probed[i].Healthy {
			first = &probed[i]
			break
		}
	}
	if first == nil {
		return sel, ErrNoHealthyRPC
	}
	if chainID == 0 {
		chainID = first.ChainID
	}
	sel.ChainID = chainID

	matching := OnChain(probed, chainID)
	if len(matching) == 0 {
		return sel, fmt.Errorf("%w: want chain %d, endpoints report %v", ErrWrongChain, chainID, reportedChains(probed))
	}

	var n uint64
	if algo == AlgorithmRoundRobin && turn != nil {
		n = turn(chainID)
	}
	winner, err := Pick(algo, matching, n)
	if err != nil {
		return sel, err
	}
	sel.URL = winner.URL
	return sel, nil
}

func reportedChains(endpoints []Endpoint) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, e := range endpoints {
		if e.Healthy && !seen[e.ChainID] {
			seen[e.ChainID] = true
			out = append(out, e.ChainID)
		}
	}
	return out
}
