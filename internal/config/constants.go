package config

import "time"

// SafeGasLimit is the fixed gas limit sent with token-contract writes. The
// token contract's owner checks make estimation fail for non-owners, so a
// fixed limit lets the transaction reach the chain and revert visibly.
const SafeGasLimit = uint64(100_000)

// Timeout constants used across cmd and the service packages.
const (
	RPCSelectTimeout      = 10 * time.Second // endpoint benchmark / chain verification
	DefaultConfirmTimeout = 3 * time.Minute  // transaction confirmation wait
	ReadTimeout           = 30 * time.Second // view calls
)

// Env var names.
const (
	EnvPrefix    = "TOKENDESK"
	EnvConfigDir = "TOKENDESK_CONFIG_DIR"
)
