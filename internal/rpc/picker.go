package rpc

import (
	"errors"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Endpoint represents a single RPC endpoint with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	ChainID     int64 // 0 when unknown
	Healthy     bool  // meaningful only when Checked == true
	Checked     bool  // true when the endpoint has been probed
}

// Pick selects an endpoint according to algo. turn is only read by
// round-robin, which takes the turn-th healthy endpoint modulo their count.
func Pick(algo Algorithm, endpoints []Endpoint, turn uint64) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}

	switch algo {
	case AlgorithmRoundRobin:
		return pickRoundRobin(endpoints, turn)
	case AlgorithmFailover:
		return pickFailover(endpoints)
	default:
		return pickFastest(endpoints)
	}
}

// OnChain returns the endpoints that reported chain id. Endpoints that were
// never probed (ChainID == 0) are excluded.
func OnChain(endpoints []Endpoint, id int64) []Endpoint {
	var out []Endpoint
	for _, e := range endpoints {
		if e.ChainID == id {
			out = append(out, e)
		}
	}
	return out
}

// pickFastest selects the best scoring healthy endpoint that is not stale.
func pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	candidates := healthyEndpoints(endpoints)
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}

	// Best block is taken over candidates only: a dead node reports 0.
	var bestBlock uint64
	for _, e := range candidates {
		if e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var winner *Endpoint
	var bestScore float64
	for _, e := range candidates {
		if bestBlock > 0 && bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		s := score(e, bestBlock)
		if winner == nil || s > bestScore {
			winner = e
			bestScore = s
		}
	}

	if winner == nil {
		return nil, ErrNoHealthyRPC
	}
	return winner, nil
}

func pickRoundRobin(endpoints []Endpoint, turn uint64) (*Endpoint, error) {
	healthy := healthyEndpoints(endpoints)
	if len(healthy) == 0 {
		return nil, ErrNoHealthyRPC
	}
	return healthy[turn%uint64(len(healthy))], nil
}

// pickFailover always tries endpoints in order, skipping explicitly unhealthy ones.
func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		e := &endpoints[i]
		if e.Checked && !e.Healthy {
			continue
		}
		return e, nil
	}
	return nil, ErrNoHealthyRPC
}

// --- scoring ---

func score(e *Endpoint, bestBlock uint64) float64 {
	var s float64

	// Latency score: higher = faster.
	if us := e.Latency.Microseconds(); us > 0 {
		s += 1_000_000.0 / float64(us)
	}

	// Block recency: loses 1 point per block behind.
	if bestBlock > 0 {
		behind := bestBlock - e.BlockNumber
		s += float64(10) - float64(behind)
	}

	return s
}

// healthyEndpoints returns endpoints eligible for selection. Unchecked
// endpoints are always candidates; checked ones only when healthy.
func healthyEndpoints(endpoints []Endpoint) []*Endpoint {
	var out []*Endpoint
	for i := range endpoints {
		e := &endpoints[i]
		if !e.Checked || e.Healthy {
			out = append(out, e)
		}
	}
	return out
}
