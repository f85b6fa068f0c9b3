// Package params loads and validates the staking core's economic-model
// constants (spec.md §4.A). These are policy data that operators may tune
// per network, so they live in a YAML file rather than compiled-in
// constants, following the teacher's split between process bootstrap
// (config.NodeConfig, TOML) and policy parameters.
package params

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stakingcore/core/types"
)

// FaultPenalty is one row of the auto-slash fault table (spec.md §4.F).
type FaultPenalty struct {
	PrincipalSlashBps uint32 `yaml:"principal_slash_bps"`
	RewardSlashBps    uint32 `yaml:"reward_slash_bps"`
	Tombstone         bool   `yaml:"tombstone"`
	JailBlocks        uint64 `yaml:"jail_blocks"`
}

// RewardStep is one entry of the piecewise block-reward schedule, active
// from FromHeight until the next entry's FromHeight (spec.md §4.A
// BLOCK_REWARD_FN).
type RewardStep struct {
	FromHeight uint64 `yaml:"from_height"`
	Reward     string `yaml:"reward"` // decimal FRA-unit string, parsed into types.Amount
}

// EconomicConfig is the full set of spec.md §4.A constants.
type EconomicConfig struct {
	NActive           uint32         `yaml:"n_active"`
	MinStake          string         `yaml:"min_stake"`
	UnbondBlocks      uint64         `yaml:"unbond_blocks"`
	SigThresholdBps   uint32         `yaml:"sig_threshold_bps"`
	ProposerBonusBps  uint32         `yaml:"proposer_bonus_bps"`
	LivenessWindow    uint64         `yaml:"liveness_window_blocks"`
	RewardSchedule    []RewardStep   `yaml:"reward_schedule"`
	FaultTable        map[string]FaultPenalty `yaml:"fault_table"`

	minStake types.Amount
}

// MinStakeAmount returns the parsed MIN_STAKE; call Load or Validate first.
func (c EconomicConfig) MinStakeAmount() types.Amount { return c.minStake }

// Load reads and validates an EconomicConfig from a YAML file.
func Load(path string) (EconomicConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EconomicConfig{}, fmt.Errorf("params: read %s: %w", path, err)
	}
	var cfg EconomicConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return EconomicConfig{}, fmt.Errorf("params: parse %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return EconomicConfig{}, err
	}
	return cfg, nil
}

// Default returns the reference economic model used by genesis bootstraps
// and tests, matching the constants listed in spec.md §4.A's example column.
func Default() EconomicConfig {
	cfg := EconomicConfig{
		NActive:          20,
		MinStake:         "1000000",
		UnbondBlocks:     21 * 24 * 3600 / 6,
		SigThresholdBps:  6700,
		ProposerBonusBps: 500,
		LivenessWindow:   100,
		RewardSchedule: []RewardStep{
			{FromHeight: 0, Reward: "100000000"},
		},
		FaultTable: map[string]FaultPenalty{
			types.FaultDoubleSign.String():        {PrincipalSlashBps: 10000, RewardSlashBps: 10000, Tombstone: true},
			types.FaultLightClientAttack.String(): {PrincipalSlashBps: 10000, RewardSlashBps: 10000, Tombstone: true},
			types.FaultLiveness.String():          {PrincipalSlashBps: 0, RewardSlashBps: 2000, JailBlocks: 100},
		},
	}
	if err := Validate(&cfg); err != nil {
		panic("params: invalid default economic config: " + err.Error())
	}
	return cfg
}
