package params

import (
	"fmt"

	"stakingcore/core/types"
)

// Validate checks an EconomicConfig's invariants and fills in its parsed
// MinStake amount, generalizing the teacher's config.ValidateConfig
// invariant-checking style to the economic model.
func Validate(c *EconomicConfig) error {
	if c.NActive == 0 {
		return fmt.Errorf("params: n_active must be positive")
	}
	minStake, err := types.AmountFromString(c.MinStake)
	if err != nil {
		return fmt.Errorf("params: min_stake: %w", err)
	}
	if minStake.IsZero() {
		return fmt.Errorf("params: min_stake must be positive")
	}
	c.minStake = minStake
	if c.UnbondBlocks == 0 {
		return fmt.Errorf("params: unbond_blocks must be positive")
	}
	if c.SigThresholdBps == 0 || c.SigThresholdBps > 10000 {
		return fmt.Errorf("params: sig_threshold_bps must be in (0, 10000]")
	}
	if c.ProposerBonusBps > 10000 {
		return fmt.Errorf("params: proposer_bonus_bps must be <= 10000")
	}
	if c.LivenessWindow == 0 {
		return fmt.Errorf("params: liveness_window_blocks must be positive")
	}
	if len(c.RewardSchedule) == 0 {
		return fmt.Errorf("params: reward_schedule must have at least one entry")
	}
	for i, step := range c.RewardSchedule {
		if i == 0 && step.FromHeight != 0 {
			return fmt.Errorf("params: reward_schedule[0].from_height must be 0")
		}
		if i > 0 && step.FromHeight <= c.RewardSchedule[i-1].FromHeight {
			return fmt.Errorf("params: reward_schedule must be strictly increasing by from_height")
		}
		if _, err := types.AmountFromString(step.Reward); err != nil {
			return fmt.Errorf("params: reward_schedule[%d].reward: %w", i, err)
		}
	}
	for _, fault := range []types.FaultKind{types.FaultDoubleSign, types.FaultLightClientAttack, types.FaultLiveness} {
		row, ok := c.FaultTable[fault.String()]
		if !ok {
			return fmt.Errorf("params: fault_table missing entry for %s", fault)
		}
		if row.PrincipalSlashBps > 10000 || row.RewardSlashBps > 10000 {
			return fmt.Errorf("params: fault_table[%s] slash bps must be <= 10000", fault)
		}
	}
	return nil
}

// RewardAt returns the block reward in effect at height h (spec.md §4.A
// BLOCK_REWARD_FN), picking the last schedule step not after h.
func (c EconomicConfig) RewardAt(h uint64) types.Amount {
	best := c.RewardSchedule[0]
	for _, step := range c.RewardSchedule {
		if step.FromHeight > h {
			break
		}
		best = step
	}
	amt, err := types.AmountFromString(best.Reward)
	if err != nil {
		// Validate already rejected unparsable entries; unreachable in practice.
		return types.ZeroAmount()
	}
	return amt
}

// Penalty returns the fault-table row for a given fault kind. Validate
// guarantees every FaultKind has an entry, so callers need not check ok.
func (c EconomicConfig) Penalty(fault types.FaultKind) FaultPenalty {
	return c.FaultTable[fault.String()]
}
