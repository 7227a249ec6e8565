package config

// Config holds all tokendesk configuration.
type Config struct {
	DefaultNetwork string              `json:"default_network" mapstructure:"default_network"`
	DefaultWallet  string              `json:"default_wallet"  mapstructure:"default_wallet"`
	RPCAlgorithm   string              `json:"rpc_algorithm"   mapstructure:"rpc_algorithm"`   // "fastest" | "round-robin" | "failover"
	GasLimit       uint64              `json:"gas_limit"       mapstructure:"gas_limit"`       // fixed gas for token writes, 0 = estimate
	ConfirmTimeout int                 `json:"confirm_timeout" mapstructure:"confirm_timeout"` // seconds
	CustomRPCs     map[string][]string `json:"custom_rpcs"     mapstructure:"custom_rpcs"`

	// internal: config dir path used for Save()
	configDir string
	// keys whose loaded value came from the environment
	overrides map[string]override
}

type override struct {
	file string
	env  string
}
