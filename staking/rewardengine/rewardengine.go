// Package rewardengine implements the Reward Engine (spec.md §4.D): block
// reward minting, proposer bonus, commission split, and pro-rata delegator
// accrual, with a per-validator dust accumulator preserving determinism
// under integer division.
package rewardengine

import (
	"sort"

	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/params"
)

// Result is everything EndBlock needs to log/trace about one reward pass.
type Result struct {
	Events         []events.Event
	Total          types.Amount
	ProposerBonus  types.Amount
	CommissionPaid types.Amount
	DelegatorPool  types.Amount
}

// Run executes steps 1-3 of spec.md §4.D's end_block sequence: mint,
// split, and accrue. Step 4 (fee credit) and step 5 (scheduled
// FraDistribution) are driven separately by the block driver since they
// depend on inputs outside the reward computation itself.
func Run(snap *state.Snapshot, econ params.EconomicConfig, height uint64, proposer types.TdPubKey, activeSet []types.TdPubKey, nextSeq func() uint64) Result {
	res := Result{Total: econ.RewardAt(height)}
	if res.Total.IsZero() {
		return res
	}

	res.ProposerBonus = res.Total.MulFrac(uint64(econ.ProposerBonusBps), 10000)
	remainder, ok := res.Total.Sub(res.ProposerBonus)
	if !ok {
		remainder = types.ZeroAmount()
	}
	res.DelegatorPool = remainder

	proposerValidator, hasProposer := snap.Validators[proposer.Key()]
	if hasProposer {
		proposerValidator.AccumulatedRewards = proposerValidator.AccumulatedRewards.Add(res.ProposerBonus)
	}

	totalPower := types.ZeroAmount()
	powers := make(map[string]types.Amount, len(activeSet))
	for _, key := range activeSet {
		v, ok := snap.Validators[key.Key()]
		if !ok {
			continue
		}
		power := votingPowerOf(snap, v)
		powers[key.Key()] = power
		totalPower = totalPower.Add(power)
	}

	if totalPower.IsZero() {
		res.Events = append(res.Events, events.BlockRewardMinted{
			Height:         height,
			Proposer:       proposer,
			Total:          res.Total,
			ProposerBonus:  res.ProposerBonus,
			CommissionPaid: types.ZeroAmount(),
			DelegatorPool:  remainder,
			Dust:           remainder,
		})
		return res
	}

	commissionTotal := types.ZeroAmount()
	sharesDistributed := types.ZeroAmount()
	var lastValidator *types.Validator
	for _, tdKeyStr := range sortedKeys(activeSet) {
		v, ok := snap.Validators[tdKeyStr]
		if !ok {
			continue
		}
		power := powers[tdKeyStr]
		if power.IsZero() {
			continue
		}
		share := remainder.MulFrac(power.Uint64(), totalPower.Uint64())
		sharesDistributed = sharesDistributed.Add(share)
		lastValidator = v
		commission := share.MulFrac(uint64(v.CommissionRateBps), 10000)

		withDust := v.Dust.Add(commission)
		v.AccumulatedRewards = v.AccumulatedRewards.Add(withDust)
		v.Dust = types.ZeroAmount()
		commissionTotal = commissionTotal.Add(withDust)

		delegatorShare, ok := share.Sub(commission)
		if !ok {
			delegatorShare = types.ZeroAmount()
		}
		accrueToDelegators(snap, v, delegatorShare, height, &res.Events)
	}
	res.CommissionPaid = commissionTotal

	// remainder.MulFrac(power, totalPower) floors per validator, so the sum
	// of shares can fall short of remainder by up to len(activeSet)-1 base
	// units. That cross-validator leftover is carried into a dust
	// accumulator the same way the within-validator delegator split already
	// does, rather than dropped, preserving spec.md §8.1 exact conservation.
	crossValidatorDust := types.ZeroAmount()
	if leftover, ok := remainder.Sub(sharesDistributed); ok && !leftover.IsZero() {
		crossValidatorDust = leftover
		switch {
		case hasProposer:
			proposerValidator.Dust = proposerValidator.Dust.Add(leftover)
		case lastValidator != nil:
			lastValidator.Dust = lastValidator.Dust.Add(leftover)
		}
	}

	res.Events = append(res.Events, events.BlockRewardMinted{
		Height:         height,
		Proposer:       proposer,
		Total:          res.Total,
		ProposerBonus:  res.ProposerBonus,
		CommissionPaid: commissionTotal,
		DelegatorPool:  remainder,
		Dust:           crossValidatorDust,
	})
	return res
}

// accrueToDelegators distributes delegatorShare pro-rata by principal across
// every Bonded/Unbonding delegation to v (spec.md §4.D step 3), including
// the validator's own self-delegation. Truncation remainder rolls into the
// validator's dust accumulator (spec.md §4.D "Determinism").
func accrueToDelegators(snap *state.Snapshot, v *types.Validator, pool types.Amount, height uint64, out *[]events.Event) {
	if pool.IsZero() {
		return
	}
	delegations := snap.DelegationsByValidator(v.TdPubKey)
	totalPrincipal := types.ZeroAmount()
	for _, d := range delegations {
		if d.State == types.DelegationSettled {
			continue
		}
		totalPrincipal = totalPrincipal.Add(d.Principal)
	}
	if totalPrincipal.IsZero() {
		v.Dust = v.Dust.Add(pool)
		return
	}
	distributed := types.ZeroAmount()
	for _, d := range delegations {
		if d.State == types.DelegationSettled {
			continue
		}
		share := pool.MulFrac(d.Principal.Uint64(), totalPrincipal.Uint64())
		if share.IsZero() {
			continue
		}
		d.AccruedReward = d.AccruedReward.Add(share)
		distributed = distributed.Add(share)
		*out = append(*out, events.RewardAccrued{
			Delegator: d.Delegator,
			Validator: v.TdPubKey,
			Amount:    share,
			Height:    height,
		})
	}
	if rem, ok := pool.Sub(distributed); ok && !rem.IsZero() {
		v.Dust = v.Dust.Add(rem)
	}
}

func votingPowerOf(snap *state.Snapshot, v *types.Validator) types.Amount {
	total := v.SelfBond
	for _, d := range snap.DelegationsByValidator(v.TdPubKey) {
		if d.Delegator == v.RewardsAddress || d.State == types.DelegationSettled {
			continue
		}
		total = total.Add(d.Principal)
	}
	return total
}

// sortedKeys returns activeSet's td_pubkey strings in canonical
// lexicographic order, independent of the power ordering registry.ActiveSet
// produces, so commission/dust bookkeeping satisfies the determinism rule
// (spec.md §4.D "all iteration orders are canonical").
func sortedKeys(activeSet []types.TdPubKey) []string {
	out := make([]string, len(activeSet))
	for i, k := range activeSet {
		out[i] = k.Key()
	}
	sort.Strings(out)
	return out
}
