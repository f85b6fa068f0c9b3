// Package registry implements the Validator Registry (spec.md §4.B): the
// authoritative map of known validators, their metadata, sanctions, and the
// active-set computation every other component reads.
package registry

import (
	"sort"

	"stakingcore/core/errors"
	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/params"
)

// UpsertValidator creates or updates a validator's metadata (spec.md §4.B).
// Authorization (self-signature or ValidatorUpdate weight) is the caller's
// responsibility; this function only enforces the registry's own
// invariants.
func UpsertValidator(snap *state.Snapshot, tdKey types.TdPubKey, rewardsAddress [20]byte, commissionBps uint32, memo string) (events.Event, *errors.StakingError) {
	if commissionBps > 10000 {
		return nil, errors.InvalidOp(errors.ErrCommissionOutOfRange)
	}
	existing, ok := snap.Validators[tdKey.Key()]
	if ok && existing.Sanction == types.SanctionTombstoned {
		return nil, errors.InvalidOp(errors.ErrValidatorTombstoned)
	}
	if ok {
		existing.RewardsAddress = rewardsAddress
		existing.CommissionRateBps = commissionBps
		existing.Memo = memo
		return events.ValidatorMetadataUpdated{
			Validator:      tdKey,
			RewardsAddress: rewardsAddress,
			CommissionBps:  commissionBps,
			Memo:           memo,
		}, nil
	}
	v := &types.Validator{
		TdPubKey:           tdKey,
		RewardsAddress:     rewardsAddress,
		CommissionRateBps:  commissionBps,
		Memo:               memo,
		SelfBond:           types.ZeroAmount(),
		AccumulatedRewards: types.ZeroAmount(),
		Sanction:           types.SanctionNone,
		Dust:               types.ZeroAmount(),
	}
	snap.Validators[tdKey.Key()] = v
	return events.ValidatorRegistered{
		Validator:      tdKey,
		RewardsAddress: rewardsAddress,
		CommissionBps:  commissionBps,
	}, nil
}

// SetSanction moves a validator to jailed or tombstoned. Tombstoning is
// idempotent and permanent (spec.md §4.B).
func SetSanction(snap *state.Snapshot, tdKey types.TdPubKey, sanction types.Sanction, height uint64) *errors.StakingError {
	v, ok := snap.Validators[tdKey.Key()]
	if !ok {
		return errors.InvalidOp(errors.ErrUnknownValidator)
	}
	if v.Sanction == types.SanctionTombstoned {
		return nil
	}
	v.Sanction = sanction
	if sanction == types.SanctionJailed {
		v.JailedAtHeight = height
	}
	return nil
}

// Unjail reinstates a jailed validator once its jail period has elapsed.
// The spec names jail as time-based (§4.F) but leaves the unjail operation
// itself unnamed; this generalizes the jail/tombstone sanction pair to a
// symmetric pair of transitions.
func Unjail(snap *state.Snapshot, tdKey types.TdPubKey, height uint64, jailBlocks uint64) (events.Event, *errors.StakingError) {
	v, ok := snap.Validators[tdKey.Key()]
	if !ok {
		return nil, errors.InvalidOp(errors.ErrUnknownValidator)
	}
	if v.Sanction != types.SanctionJailed {
		return nil, errors.InvalidOp(errors.ErrInvariantViolation)
	}
	if height < v.JailedAtHeight+jailBlocks {
		return nil, errors.PreconditionFailed(errors.ErrNotYetDue)
	}
	v.Sanction = types.SanctionNone
	v.JailedAtHeight = 0
	return events.ValidatorUnjailed{Validator: tdKey, Height: height}, nil
}

// ClaimRewards drains up to amount (or all, if amount is nil) of a
// validator's own accumulated_rewards into a PayoutIntent against its VRA,
// the validator-level analogue of staking/delegation.Claim. spec.md §4.B
// never names this operation directly, but accumulated_rewards is
// documented as "(unpaid)" the same way a delegation's accrued_reward is,
// so it needs a symmetric path to payout.
func ClaimRewards(snap *state.Snapshot, tdKey types.TdPubKey, amount *types.Amount, height uint64, nextSeq func() uint64, newIntentID func(seq uint64) string) (events.Event, *errors.StakingError) {
	v, ok := snap.Validators[tdKey.Key()]
	if !ok {
		return nil, errors.InvalidOp(errors.ErrUnknownValidator)
	}
	claimAmount := v.AccumulatedRewards
	if amount != nil {
		claimAmount = *amount
	}
	if claimAmount.IsZero() {
		return nil, errors.PreconditionFailed(errors.ErrNothingAccrued)
	}
	remaining, ok := v.AccumulatedRewards.Sub(claimAmount)
	if !ok {
		return nil, errors.InvalidOp(errors.ErrInvalidAmount)
	}
	v.AccumulatedRewards = remaining

	seq := nextSeq()
	intentID := newIntentID(seq)
	snap.PayoutQueue = append(snap.PayoutQueue, types.PayoutIntent{
		ID:            intentID,
		TargetAddress: v.RewardsAddress,
		Amount:        claimAmount,
		Reason:        types.PayoutProposerReward,
		CreatedHeight: height,
		Seq:           seq,
	})
	return events.ValidatorRewardsClaimed{Validator: tdKey, Amount: claimAmount, IntentID: intentID}, nil
}

// VotingPower computes voting_power(v) per spec.md §4.B: self_bond plus the
// sum of external bonded principal, zero if ineligible.
func VotingPower(snap *state.Snapshot, v *types.Validator, econ params.EconomicConfig) types.Amount {
	if !eligible(snap, v, econ) {
		return types.ZeroAmount()
	}
	total := v.SelfBond
	for _, d := range snap.DelegationsByValidator(v.TdPubKey) {
		if d.Delegator == v.RewardsAddress {
			continue // self-bond already counted via SelfBond
		}
		if d.State != types.DelegationBonded {
			continue
		}
		total = total.Add(d.Principal)
	}
	return total
}

func eligible(snap *state.Snapshot, v *types.Validator, econ params.EconomicConfig) bool {
	if !v.MeetsBaseEligibility(econ.MinStakeAmount()) {
		return false
	}
	if v.Genesis {
		return true
	}
	for _, d := range snap.DelegationsByValidator(v.TdPubKey) {
		if d.Delegator == v.RewardsAddress && d.State == types.DelegationBonded {
			return true
		}
	}
	return false
}

// ActiveSet computes the top-N_ACTIVE validators by voting power, tie-break
// lexicographic on td_pubkey, excluding sanctioned entries (spec.md §3.1,
// §8 property "Active-set correctness").
func ActiveSet(snap *state.Snapshot, econ params.EconomicConfig) []types.TdPubKey {
	type candidate struct {
		key    types.TdPubKey
		power  types.Amount
	}
	var candidates []candidate
	for _, key := range snap.SortedValidatorKeys() {
		v := snap.Validators[key]
		if v.Sanction != types.SanctionNone {
			continue
		}
		power := VotingPower(snap, v, econ)
		if power.IsZero() {
			continue
		}
		candidates = append(candidates, candidate{key: v.TdPubKey, power: power})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if cmp := candidates[i].power.Cmp(candidates[j].power); cmp != 0 {
			return cmp > 0
		}
		return candidates[i].key.Less(candidates[j].key)
	})
	n := int(econ.NActive)
	if len(candidates) < n {
		n = len(candidates)
	}
	out := make([]types.TdPubKey, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].key
	}
	return out
}
