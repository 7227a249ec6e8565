package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Rotation hands out round-robin turns per chain. Turns are persisted so
// that successive CLI invocations move on to the next endpoint.
type Rotation struct {
	path string
	mu   sync.Mutex
}

// NewRotation returns a Rotation stored at path.
func NewRotation(path string) *Rotation {
	return &Rotation{path: path}
}

// Next returns the current turn for chainID and advances it.
func (r *Rotation) Next(chainID int64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	turns := make(map[string]uint64)
	data, err := os.ReadFile(r.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &turns); err != nil {
			// A corrupt file restarts the rotation.
			turns = make(map[string]uint64)
		}
	case !errors.Is(err, os.ErrNotExist):
		return 0, fmt.Errorf("reading rotation: %w", err)
	}

	key := strconv.FormatInt(chainID, 10)
	turn := turns[key]
	turns[key] = turn + 1

	out, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return 0, err
	}
	if err := os.WriteFile(r.path, out, 0o600); err != nil {
		return 0, fmt.Errorf("writing rotation: %w", err)
	}
	return turn, nil
}
