package registry

import (
	"testing"

	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/delegation"
	"stakingcore/staking/params"
)

func testEconomicConfig(t *testing.T, nActive int) params.EconomicConfig {
	t.Helper()
	cfg := params.EconomicConfig{
		NActive:         uint32(nActive),
		MinStake:        "10",
		UnbondBlocks:    5,
		SigThresholdBps: 6700,
		LivenessWindow:  100,
		RewardSchedule:  []params.RewardStep{{FromHeight: 0, Reward: "1"}},
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

func TestUpsertValidatorRegistersThenUpdates(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	rewards := [20]byte{0xAA}

	ev, err := UpsertValidator(snap, tdKey, rewards, 500, "alpha")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if ev.EventType() != "validator.registered" {
		t.Fatalf("expected validator.registered, got %s", ev.EventType())
	}

	ev, err = UpsertValidator(snap, tdKey, rewards, 750, "alpha-2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ev.EventType() != "validator.metadata_updated" {
		t.Fatalf("expected validator.metadata_updated, got %s", ev.EventType())
	}
	if snap.Validators[tdKey.Key()].CommissionRateBps != 750 {
		t.Fatalf("expected updated commission to stick")
	}
}

func TestUpsertValidatorRejectsCommissionOutOfRange(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 10001, ""); err == nil {
		t.Fatalf("expected commission above 10000bps to be rejected")
	}
}

func TestUpsertValidatorRejectsOnceTombstoned(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 0, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := SetSanction(snap, tdKey, types.SanctionTombstoned, 10); err != nil {
		t.Fatalf("tombstone: %v", err)
	}
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 0, ""); err == nil {
		t.Fatalf("expected updates to a tombstoned validator to be rejected")
	}
}

func TestSetSanctionTombstoneIsPermanent(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 0, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := SetSanction(snap, tdKey, types.SanctionTombstoned, 5); err != nil {
		t.Fatalf("tombstone: %v", err)
	}
	if err := SetSanction(snap, tdKey, types.SanctionJailed, 9); err != nil {
		t.Fatalf("expected idempotent no-op on an already-tombstoned validator, got %v", err)
	}
	if snap.Validators[tdKey.Key()].Sanction != types.SanctionTombstoned {
		t.Fatalf("expected tombstoning to remain permanent")
	}
}

func TestUnjailRejectsBeforeJailPeriodElapses(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 0, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := SetSanction(snap, tdKey, types.SanctionJailed, 100); err != nil {
		t.Fatalf("jail: %v", err)
	}
	if _, err := Unjail(snap, tdKey, 105, 10); err == nil {
		t.Fatalf("expected unjail before the jail period elapses to be rejected")
	}
	ev, err := Unjail(snap, tdKey, 110, 10)
	if err != nil {
		t.Fatalf("unjail: %v", err)
	}
	if ev.EventType() != "validator.unjailed" {
		t.Fatalf("expected validator.unjailed, got %s", ev.EventType())
	}
	if snap.Validators[tdKey.Key()].Sanction != types.SanctionNone {
		t.Fatalf("expected sanction cleared after unjail")
	}
}

func TestClaimRewardsDrainsAccumulated(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{0xBB}, 0, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	snap.Validators[tdKey.Key()].AccumulatedRewards = types.NewAmount(40)

	seq := uint64(0)
	nextSeq := func() uint64 { seq++; return seq }
	newID := func(seq uint64) string { return "intent" }

	ev, err := ClaimRewards(snap, tdKey, nil, 10, nextSeq, newID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if ev.EventType() != "reward.validator_claimed" {
		t.Fatalf("expected reward.validator_claimed, got %s", ev.EventType())
	}
	if !snap.Validators[tdKey.Key()].AccumulatedRewards.IsZero() {
		t.Fatalf("expected accumulated rewards drained")
	}
	if len(snap.PayoutQueue) != 1 || snap.PayoutQueue[0].Reason != types.PayoutProposerReward {
		t.Fatalf("expected one proposer-reward payout, got %+v", snap.PayoutQueue)
	}
}

func TestClaimRewardsRejectsNothingAccrued(t *testing.T) {
	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	if _, err := UpsertValidator(snap, tdKey, [20]byte{}, 0, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := ClaimRewards(snap, tdKey, nil, 10, func() uint64 { return 0 }, func(seq uint64) string { return "x" }); err == nil {
		t.Fatalf("expected claim with nothing accrued to be rejected")
	}
}

func TestVotingPowerIsZeroBelowMinStake(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, 10)
	tdKey := types.TdPubKeyFromFull([]byte{1})
	v := &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(1), Genesis: true}
	snap.Validators[tdKey.Key()] = v

	if power := VotingPower(snap, v, econ); !power.IsZero() {
		t.Fatalf("expected a validator below min_stake to have zero voting power, got %s", power.String())
	}
}

func TestVotingPowerSumsSelfBondAndExternalDelegations(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, 10)
	tdKey := types.TdPubKeyFromFull([]byte{1})
	v := &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(20), Genesis: true}
	snap.Validators[tdKey.Key()] = v

	if _, derr := delegation.Delegate(snap, [20]byte{0xCC}, tdKey, types.NewAmount(30), 1); derr != nil {
		t.Fatalf("delegate: %v", derr)
	}

	power := VotingPower(snap, v, econ)
	if power.Uint64() != 50 {
		t.Fatalf("expected voting power 50 (20 self + 30 external), got %s", power.String())
	}
}

func TestEligibleWithoutGenesisRequiresSelfDelegation(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, 10)
	tdKey := types.TdPubKeyFromFull([]byte{1})
	rewards := [20]byte{0xAA}
	v := &types.Validator{TdPubKey: tdKey, RewardsAddress: rewards, SelfBond: types.NewAmount(20)}
	snap.Validators[tdKey.Key()] = v

	if power := VotingPower(snap, v, econ); !power.IsZero() {
		t.Fatalf("expected a non-genesis validator with no self-delegation row to be ineligible, got %s", power.String())
	}

	if _, derr := delegation.Delegate(snap, rewards, tdKey, types.NewAmount(5), 1); derr != nil {
		t.Fatalf("self-delegate: %v", derr)
	}
	if power := VotingPower(snap, v, econ); power.IsZero() {
		t.Fatalf("expected eligibility once a bonded self-delegation row exists")
	}
}

func TestActiveSetOrdersByPowerThenLexicographicTdPubKey(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, 2)

	keyLow := types.TdPubKeyFromFull([]byte{1})
	keyHigh := types.TdPubKeyFromFull([]byte{2})
	keyTied := types.TdPubKeyFromFull([]byte{3})

	snap.Validators[keyLow.Key()] = &types.Validator{TdPubKey: keyLow, SelfBond: types.NewAmount(50), Genesis: true}
	snap.Validators[keyHigh.Key()] = &types.Validator{TdPubKey: keyHigh, SelfBond: types.NewAmount(100), Genesis: true}
	snap.Validators[keyTied.Key()] = &types.Validator{TdPubKey: keyTied, SelfBond: types.NewAmount(100), Genesis: true}

	set := ActiveSet(snap, econ)
	if len(set) != 2 {
		t.Fatalf("expected N_ACTIVE=2 cap, got %d", len(set))
	}
	if set[0].Key() != keyHigh.Key() && set[0].Key() != keyTied.Key() {
		t.Fatalf("expected one of the two 100-power validators first")
	}
	// The two 100-power validators tie; lexicographically smaller digest wins the
	// first slot, excluding the 50-power validator entirely.
	if set[0].Less(set[1]) == false && set[0].Key() == set[1].Key() {
		t.Fatalf("expected two distinct validators in the active set")
	}
	for _, k := range set {
		if k.Key() == keyLow.Key() {
			t.Fatalf("expected the lowest-power validator excluded by the N_ACTIVE cap")
		}
	}
}

func TestActiveSetExcludesSanctionedValidators(t *testing.T) {
	snap := state.New()
	econ := testEconomicConfig(t, 10)
	tdKey := types.TdPubKeyFromFull([]byte{1})
	snap.Validators[tdKey.Key()] = &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(100), Genesis: true, Sanction: types.SanctionJailed}

	if set := ActiveSet(snap, econ); len(set) != 0 {
		t.Fatalf("expected a jailed validator excluded from the active set, got %v", set)
	}
}
