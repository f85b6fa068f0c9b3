package rewardengine

import (
	"testing"

	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/delegation"
	"stakingcore/staking/params"
)

func testEconomicConfig(t *testing.T, reward string, proposerBonusBps uint32) params.EconomicConfig {
	t.Helper()
	cfg := params.EconomicConfig{
		NActive:          10,
		MinStake:         "1",
		UnbondBlocks:     5,
		SigThresholdBps:  6700,
		ProposerBonusBps: proposerBonusBps,
		LivenessWindow:   100,
		RewardSchedule:   []params.RewardStep{{FromHeight: 0, Reward: reward}},
		FaultTable: map[string]params.FaultPenalty{
			types.FaultDoubleSign.String():        {PrincipalSlashBps: 10000, Tombstone: true},
			types.FaultLightClientAttack.String(): {PrincipalSlashBps: 10000, Tombstone: true},
			types.FaultLiveness.String():          {PrincipalSlashBps: 0, JailBlocks: 10},
		},
	}
	if err := params.Validate(&cfg); err != nil {
		t.Fatalf("validate econ: %v", err)
	}
	return cfg
}

func nextSeqFn() func() uint64 {
	var seq uint64
	return func() uint64 { seq++; return seq }
}

func TestRunIsNoopWhenScheduleYieldsZeroReward(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "0", 1000)
	tdKey := types.TdPubKeyFromFull([]byte{1})
	snap.Validators[tdKey.Key()] = &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(100), Genesis: true}

	res := Run(snap, econ, 1, tdKey, []types.TdPubKey{tdKey}, nextSeqFn())
	if !res.Total.IsZero() || len(res.Events) != 0 {
		t.Fatalf("expected a zero block reward to mint nothing, got %+v", res)
	}
}

func TestRunCreditsProposerBonusToAccumulatedRewards(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "1000", 1000) // 10% proposer bonus
	tdKey := types.TdPubKeyFromFull([]byte{1})
	snap.Validators[tdKey.Key()] = &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(100), Genesis: true}

	res := Run(snap, econ, 1, tdKey, []types.TdPubKey{tdKey}, nextSeqFn())
	if res.ProposerBonus.Uint64() != 100 {
		t.Fatalf("expected proposer bonus of 100 (10%% of 1000), got %s", res.ProposerBonus.String())
	}
	if got := snap.Validators[tdKey.Key()].AccumulatedRewards.Uint64(); got != 100 {
		t.Fatalf("expected the proposer's accumulated_rewards credited with the bonus, got %d", got)
	}
}

func TestRunFallsBackToDustWhenActiveSetHasNoVotingPower(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "1000", 0)
	tdKey := types.TdPubKeyFromFull([]byte{1}) // not registered as a validator at all

	res := Run(snap, econ, 1, tdKey, []types.TdPubKey{tdKey}, nextSeqFn())
	if len(res.Events) != 1 || res.Events[0].EventType() != "reward.block_minted" {
		t.Fatalf("expected a single block_minted event even with no voting power, got %v", res.Events)
	}
}

func TestRunSplitsCommissionAndAccruesDelegatorsProRata(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "1000", 0) // no proposer bonus, all to the pool
	tdKey := types.TdPubKeyFromFull([]byte{1})
	rewardsAddr := [20]byte{0xAA}
	snap.Validators[tdKey.Key()] = &types.Validator{
		TdPubKey:          tdKey,
		RewardsAddress:    rewardsAddr,
		CommissionRateBps: 1000, // 10%
		Genesis:           true,
	}
	// A self-delegation and an equal external delegation give voting power
	// 100+100=200 and an even 50/50 split of the delegator pool.
	if _, derr := delegation.Delegate(snap, rewardsAddr, tdKey, types.NewAmount(100), 1); derr != nil {
		t.Fatalf("self-delegate: %v", derr)
	}
	external := [20]byte{0xBB}
	if _, derr := delegation.Delegate(snap, external, tdKey, types.NewAmount(100), 1); derr != nil {
		t.Fatalf("delegate: %v", derr)
	}

	res := Run(snap, econ, 1, tdKey, []types.TdPubKey{tdKey}, nextSeqFn())

	if res.CommissionPaid.Uint64() != 100 {
		t.Fatalf("expected 10%% of the 1000-unit pool as commission, got %s", res.CommissionPaid.String())
	}
	if got := snap.Validators[tdKey.Key()].AccumulatedRewards.Uint64(); got != 100 {
		t.Fatalf("expected the validator's own commission credited, got %d", got)
	}

	key := (types.DelegationKey{Delegator: external, Validator: tdKey}).Key()
	d := snap.Delegations[key]
	if d.AccruedReward.Uint64() != 450 {
		t.Fatalf("expected the external delegator to accrue half of the remaining 900 pool (450), got %s", d.AccruedReward.String())
	}
}

func TestRunRollsTruncationRemainderIntoDust(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "10", 0) // a tiny pool to force integer-division truncation
	tdKey := types.TdPubKeyFromFull([]byte{1})
	rewardsAddr := [20]byte{0xAA}
	snap.Validators[tdKey.Key()] = &types.Validator{
		TdPubKey:       tdKey,
		RewardsAddress: rewardsAddr,
		SelfBond:       types.NewAmount(1),
		Genesis:        true,
	}
	// Three delegators of equal principal split 10 units: 10/3 truncates per share.
	for i := byte(1); i <= 3; i++ {
		if _, derr := delegation.Delegate(snap, [20]byte{i}, tdKey, types.NewAmount(1), 1); derr != nil {
			t.Fatalf("delegate %d: %v", i, derr)
		}
	}

	Run(snap, econ, 1, tdKey, []types.TdPubKey{tdKey}, nextSeqFn())

	v := snap.Validators[tdKey.Key()]
	total := v.Dust
	for i := byte(1); i <= 3; i++ {
		key := (types.DelegationKey{Delegator: [20]byte{i}, Validator: tdKey}).Key()
		total = total.Add(snap.Delegations[key].AccruedReward)
	}
	if total.Uint64() != 10 {
		t.Fatalf("expected dust plus distributed shares to conserve the full pool (10), got %s", total.String())
	}
}

func TestRunCarriesCrossValidatorTruncationIntoProposerDust(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "10", 0) // remainder = 10, no proposer bonus
	proposer := types.TdPubKeyFromFull([]byte{1})
	other := types.TdPubKeyFromFull([]byte{2})
	// Voting power 1:2 over a 10-unit pool floors to 3 and 6 per validator,
	// dropping the 10th unit if the split is taken at face value.
	snap.Validators[proposer.Key()] = &types.Validator{TdPubKey: proposer, SelfBond: types.NewAmount(1), Genesis: true}
	snap.Validators[other.Key()] = &types.Validator{TdPubKey: other, SelfBond: types.NewAmount(2), Genesis: true}

	res := Run(snap, econ, 1, proposer, []types.TdPubKey{proposer, other}, nextSeqFn())

	minted, ok := res.Events[len(res.Events)-1].(events.BlockRewardMinted)
	if !ok {
		t.Fatalf("expected the last event to be block_minted, got %v", res.Events)
	}
	if minted.Dust.Uint64() != 1 {
		t.Fatalf("expected the 1-unit cross-validator truncation reported as dust, got %s", minted.Dust.String())
	}

	total := snap.Validators[proposer.Key()].Dust.Add(snap.Validators[proposer.Key()].AccumulatedRewards)
	total = total.Add(snap.Validators[other.Key()].Dust).Add(snap.Validators[other.Key()].AccumulatedRewards)
	if total.Uint64() != 10 {
		t.Fatalf("expected the full 10-unit pool conserved across both validators' dust and accumulated rewards, got %s", total.String())
	}
}

func TestRunSkipsUnknownActiveSetEntries(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, "100", 0)
	known := types.TdPubKeyFromFull([]byte{1})
	unknown := types.TdPubKeyFromFull([]byte{2})
	snap.Validators[known.Key()] = &types.Validator{TdPubKey: known, SelfBond: types.NewAmount(10), Genesis: true}

	res := Run(snap, econ, 1, known, []types.TdPubKey{known, unknown}, nextSeqFn())
	if res.Total.Uint64() != 100 {
		t.Fatalf("expected the full schedule reward minted regardless of unknown entries, got %s", res.Total.String())
	}
}
