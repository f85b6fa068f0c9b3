// Package delegation implements the Delegation Ledger (spec.md §4.C): the
// Bonded → Unbonding → Settled state machine for bonded stake.
package delegation

import (
	"stakingcore/core/errors"
	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/params"
	"stakingcore/staking/pause"
)

// IsUnbondingAnywhere reports whether delegator has any Unbonding row,
// which blocks new bonds (spec.md §4.C "no new bonds while unbonding").
func IsUnbondingAnywhere(snap *state.Snapshot, delegator [20]byte) bool {
	for _, key := range snap.SortedDelegationKeys() {
		d := snap.Delegations[key]
		if d.Delegator == delegator && d.State == types.DelegationUnbonding {
			return true
		}
	}
	return false
}

// IsLockRestricted reports whether delegator has any Bonded or Unbonding
// row (spec.md §3.1 lock-restriction invariant, §8 property "Lock safety").
func IsLockRestricted(snap *state.Snapshot, delegator [20]byte) bool {
	for _, key := range snap.SortedDelegationKeys() {
		d := snap.Delegations[key]
		if d.Delegator == delegator && (d.State == types.DelegationBonded || d.State == types.DelegationUnbonding) {
			return true
		}
	}
	return false
}

// Delegate implements delegate(delegator, td_pubkey, amount) (spec.md §4.C).
func Delegate(snap *state.Snapshot, delegator [20]byte, tdKey types.TdPubKey, amount types.Amount, height uint64) (events.Event, *errors.StakingError) {
	if err := pause.Guard(snap, pause.ModuleDelegate); err != nil {
		return nil, err
	}
	v, ok := snap.Validators[tdKey.Key()]
	if !ok {
		return nil, errors.InvalidOp(errors.ErrUnknownValidator)
	}
	if v.Sanction == types.SanctionTombstoned {
		return nil, errors.InvalidOp(errors.ErrValidatorTombstoned)
	}
	if amount.IsZero() {
		return nil, errors.InvalidOp(errors.ErrInvalidAmount)
	}
	if IsUnbondingAnywhere(snap, delegator) {
		return nil, errors.PreconditionFailed(errors.ErrAccountUnbonding)
	}

	key := types.DelegationKey{Delegator: delegator, Validator: tdKey}
	if existing, ok := snap.Delegations[key.Key()]; ok && existing.State == types.DelegationBonded {
		existing.Principal = existing.Principal.Add(amount)
		if delegator == v.RewardsAddress {
			v.SelfBond = v.SelfBond.Add(amount)
		}
		return events.DelegationIncreased{
			Delegator:    delegator,
			Validator:    tdKey,
			Added:        amount,
			NewPrincipal: existing.Principal,
		}, nil
	}

	d := &types.Delegation{
		Delegator:     delegator,
		Validator:     tdKey,
		Principal:     amount,
		BondHeight:    height,
		State:         types.DelegationBonded,
		AccruedReward: types.ZeroAmount(),
	}
	snap.Delegations[key.Key()] = d
	if delegator == v.RewardsAddress {
		v.SelfBond = v.SelfBond.Add(amount)
	}
	return events.DelegationBonded{
		Delegator: delegator,
		Validator: tdKey,
		Amount:    amount,
		Height:    height,
	}, nil
}

// Undelegate implements undelegate(delegator, td_pubkey) (spec.md §4.C).
// Self-delegations cannot exit while the validator is in the active set.
func Undelegate(snap *state.Snapshot, delegator [20]byte, tdKey types.TdPubKey, height uint64, econ params.EconomicConfig, activeSet []types.TdPubKey) (events.Event, *errors.StakingError) {
	if err := pause.Guard(snap, pause.ModuleUndelegate); err != nil {
		return nil, err
	}
	key := types.DelegationKey{Delegator: delegator, Validator: tdKey}
	d, ok := snap.Delegations[key.Key()]
	if !ok || d.State != types.DelegationBonded {
		return nil, errors.PreconditionFailed(errors.ErrNoBondedDelegation)
	}
	if v, ok := snap.Validators[tdKey.Key()]; ok && d.IsSelfDelegation(v.RewardsAddress) && inActiveSet(activeSet, tdKey) {
		return nil, errors.PreconditionFailed(errors.ErrSelfDelegationLocked)
	}

	d.State = types.DelegationUnbonding
	d.UnbondFinishHeight = height + econ.UnbondBlocks
	if v, ok := snap.Validators[tdKey.Key()]; ok && d.IsSelfDelegation(v.RewardsAddress) {
		if reduced, ok := v.SelfBond.Sub(d.Principal); ok {
			v.SelfBond = reduced
		}
	}
	return events.UndelegateInitiated{
		Delegator:          delegator,
		Validator:          tdKey,
		Principal:          d.Principal,
		UnbondFinishHeight: d.UnbondFinishHeight,
	}, nil
}

func inActiveSet(set []types.TdPubKey, key types.TdPubKey) bool {
	for _, k := range set {
		if k.Key() == key.Key() {
			return true
		}
	}
	return false
}

// Claim implements claim(delegator, td_pubkey, amount?) (spec.md §4.C): it
// moves up to amount (or all, if amount is nil) of accrued_reward into a
// PayoutIntent. State (Bonded/Unbonding) is preserved.
func Claim(snap *state.Snapshot, delegator [20]byte, tdKey types.TdPubKey, amount *types.Amount, height uint64, nextSeq func() uint64, newIntentID func(seq uint64) string) (events.Event, *errors.StakingError) {
	if err := pause.Guard(snap, pause.ModuleClaim); err != nil {
		return nil, err
	}
	key := types.DelegationKey{Delegator: delegator, Validator: tdKey}
	d, ok := snap.Delegations[key.Key()]
	if !ok {
		return nil, errors.InvalidOp(errors.ErrUnknownValidator)
	}
	claimAmount := d.AccruedReward
	if amount != nil {
		claimAmount = *amount
	}
	if claimAmount.IsZero() {
		return nil, errors.PreconditionFailed(errors.ErrNothingAccrued)
	}
	remaining, ok := d.AccruedReward.Sub(claimAmount)
	if !ok {
		return nil, errors.InvalidOp(errors.ErrInvalidAmount)
	}
	d.AccruedReward = remaining

	seq := nextSeq()
	intentID := newIntentID(seq)
	snap.PayoutQueue = append(snap.PayoutQueue, types.PayoutIntent{
		ID:            intentID,
		TargetAddress: delegator,
		Amount:        claimAmount,
		Reason:        types.PayoutCommission,
		CreatedHeight: height,
		Seq:           seq,
	})
	return events.RewardClaimed{
		Delegator: delegator,
		Validator: tdKey,
		Amount:    claimAmount,
		IntentID:  intentID,
	}, nil
}

// TickUnbonding implements tick_unbonding(height) (spec.md §4.C): settles
// every Unbonding row whose unbond_finish_height is at or below height and whose owning
// validator's pending rewards are covered (i.e. coinbase is not stalled),
// releasing the lock and returning principal via a PayoutIntent.
func TickUnbonding(snap *state.Snapshot, height uint64, nextSeq func() uint64, newIntentID func(seq uint64) string) []events.Event {
	var out []events.Event
	if snap.Coinbase.Stalled {
		return out
	}
	for _, key := range snap.SortedDelegationKeys() {
		d := snap.Delegations[key]
		if d.State != types.DelegationUnbonding || d.UnbondFinishHeight > height {
			continue
		}
		if !d.AccruedReward.IsZero() {
			rewardSeq := nextSeq()
			snap.PayoutQueue = append(snap.PayoutQueue, types.PayoutIntent{
				ID:            newIntentID(rewardSeq),
				TargetAddress: d.Delegator,
				Amount:        d.AccruedReward,
				Reason:        types.PayoutCommission,
				CreatedHeight: height,
				Seq:           rewardSeq,
			})
			d.AccruedReward = types.ZeroAmount()
		}
		principalSeq := nextSeq()
		intentID := newIntentID(principalSeq)
		snap.PayoutQueue = append(snap.PayoutQueue, types.PayoutIntent{
			ID:            intentID,
			TargetAddress: d.Delegator,
			Amount:        d.Principal,
			Reason:        types.PayoutUnbondPrincipal,
			CreatedHeight: height,
			Seq:           principalSeq,
		})
		d.State = types.DelegationSettled
		out = append(out, events.DelegationSettled{
			Delegator: d.Delegator,
			Validator: d.Validator,
			Principal: d.Principal,
			Height:    height,
		})
		delete(snap.Delegations, key)
	}
	return out
}
