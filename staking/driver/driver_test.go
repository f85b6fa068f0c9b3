package driver

import (
	"testing"

	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/staking/params"
)

type fakeLedger struct {
	payouts map[[20]byte]uint64
}

func newFakeLedger() *fakeLedger { return &fakeLedger{payouts: make(map[[20]byte]uint64)} }

func (f *fakeLedger) ApplyPayout(target [20]byte, amount types.Amount) error {
	f.payouts[target] += amount.Uint64()
	return nil
}

func testEconomicConfig(t *testing.T) params.EconomicConfig {
	t.Helper()
	cfg := params.EconomicConfig{
		NActive:          10,
		MinStake:         "1",
		UnbondBlocks:     2,
		SigThresholdBps:  6700,
		ProposerBonusBps: 0,
		LivenessWindow:   3,
		RewardSchedule:   []params.RewardStep{{FromHeight: 0, Reward: "100"}},
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

func beginBlock(height uint64, proposer types.TdPubKey, signers []types.TdPubKey) types.BeginBlockInput {
	return types.BeginBlockInput{Height: height, Proposer: proposer, LastCommitSigners: signers}
}

// TestProcessBlockDelegateAccrueUnbondAndPayout exercises delegate → reward
// accrual → undelegate → tick_unbonding → coinbase payout → validator diff
// end to end across several blocks of one driver.
func TestProcessBlockDelegateAccrueUnbondAndPayout(t *testing.T) {
	econ := testEconomicConfig(t)
	ledger := newFakeLedger()
	d := New(econ, ledger, nil)

	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	rewardsAddr := [20]byte{0xAA}
	snap.Validators[tdKey.Key()] = &types.Validator{
		TdPubKey:       tdKey,
		RewardsAddress: rewardsAddr,
		Genesis:        true,
	}
	snap.Coinbase.Balance = types.NewAmount(1_000_000)

	delegator := [20]byte{0xBB}
	ops := []types.Operation{
		{Kind: types.OpDelegate, Delegate: &types.DelegateOp{Delegator: rewardsAddr, TdPubKey: tdKey, Amount: types.NewAmount(100)}},
		{Kind: types.OpDelegate, Delegate: &types.DelegateOp{Delegator: delegator, TdPubKey: tdKey, Amount: types.NewAmount(100)}},
	}

	res, err := d.ProcessBlock(snap, beginBlock(1, tdKey, nil), ops, types.ZeroAmount())
	if err != nil {
		t.Fatalf("process block 1: %v", err)
	}
	if len(snap.ActiveSet) != 1 || snap.ActiveSet[0].Key() != tdKey.Key() {
		t.Fatalf("expected the validator to enter the active set at height 1, diff=%v set=%v", res.Diff, snap.ActiveSet)
	}
	if len(res.Diff) != 1 || res.Diff[0].NewPower == 0 {
		t.Fatalf("expected a validator-diff entry adding the validator, got %v", res.Diff)
	}

	// Block 2: the block reward accrues to both the self and external delegation.
	if _, err := d.ProcessBlock(snap, beginBlock(2, tdKey, []types.TdPubKey{tdKey}), nil, types.ZeroAmount()); err != nil {
		t.Fatalf("process block 2: %v", err)
	}
	externalKey := (types.DelegationKey{Delegator: delegator, Validator: tdKey}).Key()
	if snap.Delegations[externalKey].AccruedReward.IsZero() {
		t.Fatalf("expected the external delegation to have accrued a reward by height 2")
	}

	// Block 3: the external delegator exits; UNBOND_BLOCKS=2 means it settles at height 5.
	undelegateOps := []types.Operation{
		{Kind: types.OpUndelegate, Undelegate: &types.UndelegateOp{Delegator: delegator, TdPubKey: tdKey}},
	}
	if _, err := d.ProcessBlock(snap, beginBlock(3, tdKey, []types.TdPubKey{tdKey}), undelegateOps, types.ZeroAmount()); err != nil {
		t.Fatalf("process block 3: %v", err)
	}
	if snap.Delegations[externalKey].State != types.DelegationUnbonding {
		t.Fatalf("expected the delegation to be unbonding after height 3")
	}

	// Block 4: not yet due.
	if _, err := d.ProcessBlock(snap, beginBlock(4, tdKey, []types.TdPubKey{tdKey}), nil, types.ZeroAmount()); err != nil {
		t.Fatalf("process block 4: %v", err)
	}
	if _, stillThere := snap.Delegations[externalKey]; !stillThere {
		t.Fatalf("expected the unbonding row to remain before its unbond_finish_height")
	}

	// Block 5: tick_unbonding settles the row and pays out through the ledger.
	if _, err := d.ProcessBlock(snap, beginBlock(5, tdKey, []types.TdPubKey{tdKey}), nil, types.ZeroAmount()); err != nil {
		t.Fatalf("process block 5: %v", err)
	}
	if _, stillThere := snap.Delegations[externalKey]; stillThere {
		t.Fatalf("expected the delegation row removed once settled")
	}
	if ledger.payouts[delegator] == 0 {
		t.Fatalf("expected the settled delegation's payout to reach the ledger, got %v", ledger.payouts)
	}
}

// TestProcessBlockAutoSlashesOnPersistentLivenessFailure exercises the
// liveness fault path through begin_block without any consensus-supplied
// Evidence.
func TestProcessBlockAutoSlashesOnPersistentLivenessFailure(t *testing.T) {
	econ := testEconomicConfig(t) // LivenessWindow: 3
	d := New(econ, nil, nil)

	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	snap.Validators[tdKey.Key()] = &types.Validator{TdPubKey: tdKey, SelfBond: types.NewAmount(100), Genesis: true}
	snap.ActiveSet = []types.TdPubKey{tdKey}

	for h := uint64(1); h <= 4; h++ {
		if _, err := d.ProcessBlock(snap, beginBlock(h, tdKey, nil), nil, types.ZeroAmount()); err != nil {
			t.Fatalf("process block %d: %v", h, err)
		}
	}

	v := snap.Validators[tdKey.Key()]
	if v.Sanction == types.SanctionNone {
		t.Fatalf("expected the validator sanctioned after exceeding LIVENESS_WINDOW consecutive misses")
	}
}

// TestProcessBlockRejectsInvalidOpWithoutHaltingTheBlock exercises spec §7:
// a single rejected operation must not abort the rest of the block.
func TestProcessBlockRejectsInvalidOpWithoutHaltingTheBlock(t *testing.T) {
	econ := testEconomicConfig(t)
	d := New(econ, nil, nil)

	snap := state.New()
	tdKey := types.TdPubKeyFromFull([]byte{1})
	snap.Validators[tdKey.Key()] = &types.Validator{TdPubKey: tdKey, Genesis: true}

	unknownKey := types.TdPubKeyFromFull([]byte{9})
	ops := []types.Operation{
		{Kind: types.OpDelegate, Delegate: &types.DelegateOp{Delegator: [20]byte{1}, TdPubKey: unknownKey, Amount: types.NewAmount(10)}},
		{Kind: types.OpDelegate, Delegate: &types.DelegateOp{Delegator: [20]byte{2}, TdPubKey: tdKey, Amount: types.NewAmount(10)}},
	}

	res, err := d.ProcessBlock(snap, beginBlock(1, tdKey, nil), ops, types.ZeroAmount())
	if err != nil {
		t.Fatalf("expected the block to continue past a single rejected op, got fatal error %v", err)
	}
	// One event from the surviving op plus the reward engine's block_minted
	// event, which is emitted even though the active set is still empty.
	if len(res.Events) != 2 {
		t.Fatalf("expected exactly one op event plus the block_minted event, got %d", len(res.Events))
	}
}
