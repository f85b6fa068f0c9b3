// Package config loads the staking node's bootstrap configuration.
// Economic-model parameters live separately in staking/params, which uses
// YAML rather than TOML because it is policy data, not process bootstrap.
package config

// NodeConfig is the node's TOML bootstrap configuration: where it listens,
// where it persists state, and how it reaches the collaborating systems
// named in spec.md §6 (the consensus driver's handshake address is supplied
// by the driver process itself, not configured here).
type NodeConfig struct {
	DataDir            string        `toml:"data_dir"`
	QueryListenAddr    string        `toml:"query_listen_addr"`
	NotifyListenAddr   string        `toml:"notify_listen_addr"`
	ValidatorKeyPath   string        `toml:"validator_key_path"`
	EconomicParamsPath string        `toml:"economic_params_path"`
	GenesisPath        string        `toml:"genesis_path"`
	Observability      Observability `toml:"observability"`
	Governance         Governance    `toml:"governance"`
	RateLimit          RateLimit     `toml:"rate_limit"`
}

// Observability controls the OTLP/HTTP trace exporter and log rotation.
type Observability struct {
	ServiceName   string `toml:"service_name"`
	Environment   string `toml:"environment"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	LogFilePath   string `toml:"log_file_path"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
	LogMaxBackups int    `toml:"log_max_backups"`
}

// Governance carries the bearer-auth defense-in-depth knob for the
// governance-submission endpoint (spec.md §4.F's SIG_THRESHOLD check is the
// authoritative gate; this is an additional transport-level filter).
type Governance struct {
	SubmissionJWTSecret string `toml:"submission_jwt_secret"`
	SubmissionJWTIssuer string `toml:"submission_jwt_issuer"`

	// SubmissionQuotaPerEpoch caps gated-operation submissions per signer
	// per SubmissionQuotaEpochBlocks-block window. Zero disables the quota.
	SubmissionQuotaPerEpoch    uint32 `toml:"submission_quota_per_epoch"`
	SubmissionQuotaEpochBlocks uint64 `toml:"submission_quota_epoch_blocks"`
}

// RateLimit bounds the read-only query API (spec.md §5: advisory surface,
// never authoritative, so limits protect the node rather than correctness).
type RateLimit struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}
