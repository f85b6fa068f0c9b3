package config

import "fmt"

// ValidateConfig checks a NodeConfig's invariants before the node boots,
// mirroring the teacher's plain-error ValidateConfig style rather than
// panicking on a bad config file.
func ValidateConfig(c NodeConfig) error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required")
	}
	if c.QueryListenAddr == "" {
		return fmt.Errorf("config: query_listen_addr is required")
	}
	if c.EconomicParamsPath == "" {
		return fmt.Errorf("config: economic_params_path is required")
	}
	if c.GenesisPath == "" {
		return fmt.Errorf("config: genesis_path is required")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("config: rate_limit.requests_per_second must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate_limit.burst must be positive")
	}
	return nil
}
