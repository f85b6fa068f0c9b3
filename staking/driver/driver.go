// Package driver implements the Block Driver (spec.md §4.G): the single
// entry point that takes one block's worth of consensus input and validated
// operations, applies every other component in the prescribed order, and
// computes the validator diff published back to the consensus driver.
package driver

import (
	"sort"
	"time"

	"stakingcore/core/errors"
	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/observability"
	"stakingcore/staking/coinbase"
	"stakingcore/staking/delegation"
	"stakingcore/staking/governance"
	"stakingcore/staking/params"
	"stakingcore/staking/registry"
	"stakingcore/staking/rewardengine"
)

// LedgerView is the staking core's outbound dependency on the ledger
// collaborator (spec.md §6.2): once the Coinbase Payer decides an intent can
// be paid, the core asks the ledger to actually move the funds, since the
// core itself holds no transfer authority over ledger accounts.
type LedgerView interface {
	ApplyPayout(target [20]byte, amount types.Amount) error
}

// Driver is the Block Driver. It owns no state of its own beyond its
// economic parameters; every call operates on a caller-supplied Snapshot, so
// the caller (normally core/state.Manager) controls clone/commit boundaries.
type Driver struct {
	Econ   params.EconomicConfig
	Ledger LedgerView
	WAL    *coinbase.WAL
}

// New constructs a Driver. wal may be nil, in which case the payout WAL is
// disabled (e.g. in tests).
func New(econ params.EconomicConfig, ledger LedgerView, wal *coinbase.WAL) *Driver {
	return &Driver{Econ: econ, Ledger: ledger, WAL: wal}
}

// BlockResult is everything ProcessBlock produces for the caller to log,
// trace, and hand to the notification stream (SPEC_FULL.md §A.7).
type BlockResult struct {
	Events []events.Event
	Diff   []types.ValidatorUpdate
	Reward rewardengine.Result
}

// ProcessBlock runs spec.md §4.G's four steps as one atomic unit against
// snap, which the caller must have already cloned from the last committed
// state. A non-nil *errors.StakingError with Kind Fatal means the caller
// must discard snap and halt rather than commit (spec.md §4.G "If any step
// fails with Fatal, the block is rejected — the node halts rather than
// drift.").
func (d *Driver) ProcessBlock(snap *state.Snapshot, input types.BeginBlockInput, ops []types.Operation, feeInflow types.Amount) (BlockResult, *errors.StakingError) {
	start := time.Now()
	var out BlockResult
	defer func() {
		observability.StakingCore().ObserveBlock(time.Since(start), len(snap.ActiveSet), float64(snap.Coinbase.Balance.Uint64()), snap.Coinbase.Stalled, len(snap.PayoutQueue), len(out.Diff))
	}()

	// Step 1: begin_block — liveness bookkeeping, then evidence-driven
	// auto-slashing.
	d.recordLiveness(snap, input)
	for _, ev := range input.Evidence {
		slashEvents, err := governance.ApplyAutoSlash(snap, d.Econ, ev)
		if err != nil && errors.Is(err, errors.KindFatal) {
			return out, err
		}
		out.Events = append(out.Events, slashEvents...)
	}

	// Step 2: apply validated operations in transaction order.
	for _, op := range ops {
		opEvents, err := d.applyOp(snap, op, input.Height)
		if err != nil {
			if errors.Is(err, errors.KindFatal) {
				return out, err
			}
			// InvalidOp/PreconditionFailed/Insufficient: the single
			// operation is rejected, the block continues (spec.md §7).
			continue
		}
		out.Events = append(out.Events, opEvents...)
	}

	// Step 3: tick_unbonding, Reward Engine, Coinbase Payer.
	snap.Coinbase.Balance = snap.Coinbase.Balance.Add(feeInflow)
	d.flushScheduledCredits(snap, input.Height)

	tickEvents := delegation.TickUnbonding(snap, input.Height, d.nextPayoutSeq(snap), d.newIntentID)
	out.Events = append(out.Events, tickEvents...)

	activeSet := registry.ActiveSet(snap, d.Econ)
	rewardResult := rewardengine.Run(snap, d.Econ, input.Height, input.Proposer, activeSet, d.nextPayoutSeq(snap))
	out.Reward = rewardResult
	out.Events = append(out.Events, rewardResult.Events...)

	payoutEvents := coinbase.Run(snap, input.Height)
	out.Events = append(out.Events, payoutEvents...)
	if err := d.WAL.Append(input.Height, payoutEvents); err != nil {
		observability.StakingCore().RecordWALError()
	}
	if d.Ledger != nil {
		d.applySettledPayouts(snap, payoutEvents)
	}

	// Step 4: validator diff versus the set published at h-1.
	powers := make(map[string]uint64, len(activeSet))
	for _, key := range activeSet {
		if v, ok := snap.Validators[key.Key()]; ok {
			powers[key.Key()] = registry.VotingPower(snap, v, d.Econ).Uint64()
		}
	}
	out.Diff = diff(snap.ActiveSet, activeSet, powers)
	snap.ActiveSet = activeSet
	snap.LastHeight = input.Height

	return out, nil
}

// ApplyGatedOperation is a convenience entry point for operations submitted
// outside the normal per-block transaction stream (e.g. the four weighted
// multi-sig gated kinds from the governance-submission API). It accepts any
// operation kind and applies it exactly as applyOp does.
func (d *Driver) ApplyGatedOperation(snap *state.Snapshot, op types.Operation, height uint64) ([]events.Event, *errors.StakingError) {
	return d.applyOp(snap, op, height)
}

func (d *Driver) applyOp(snap *state.Snapshot, op types.Operation, height uint64) ([]events.Event, *errors.StakingError) {
	switch op.Kind {
	case types.OpDelegate:
		ev, err := delegation.Delegate(snap, op.Delegate.Delegator, op.Delegate.TdPubKey, op.Delegate.Amount, height)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	case types.OpUndelegate:
		ev, err := delegation.Undelegate(snap, op.Undelegate.Delegator, op.Undelegate.TdPubKey, height, d.Econ, registry.ActiveSet(snap, d.Econ))
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	case types.OpClaim:
		ev, err := delegation.Claim(snap, op.Claim.Delegator, op.Claim.TdPubKey, op.Claim.Amount, height, d.nextPayoutSeq(snap), d.newIntentID)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	case types.OpValidatorUpdate:
		return governance.ApplyValidatorUpdate(snap, d.Econ, *op.ValidatorUpdate, height, d.newRecordID(snap))
	case types.OpGovernance:
		return governance.ApplyGovernance(snap, d.Econ, *op.Governance, d.newRecordID(snap))
	case types.OpFraDistribution:
		return governance.ApplyFraDistribution(snap, d.Econ, *op.FraDistribution, height, d.nextScheduledSeqOnce(snap), d.newRecordID(snap))
	case types.OpClaimValidatorRewards:
		ev, err := registry.ClaimRewards(snap, op.ClaimValidatorRewards.TdPubKey, op.ClaimValidatorRewards.Amount, height, d.nextPayoutSeq(snap), d.newIntentID)
		if err != nil {
			return nil, err
		}
		return []events.Event{ev}, nil
	case types.OpModulePause:
		return governance.ApplyModulePause(snap, d.Econ, *op.ModulePause, height, d.newRecordID(snap))
	default:
		return nil, errors.InvalidOp(errors.ErrInvariantViolation)
	}
}

// recordLiveness updates per-validator miss counters against the active set
// and applies a liveness auto-slash once a validator exceeds LIVENESS_WINDOW
// consecutive misses (spec.md §4.G step 1, §4.F liveness row).
func (d *Driver) recordLiveness(snap *state.Snapshot, input types.BeginBlockInput) {
	signed := make(map[string]bool, len(input.LastCommitSigners))
	for _, s := range input.LastCommitSigners {
		signed[s.Key()] = true
	}
	for _, key := range snap.ActiveSet {
		if signed[key.Key()] {
			delete(snap.LivenessMisses, key.Key())
			continue
		}
		snap.LivenessMisses[key.Key()]++
		if snap.LivenessMisses[key.Key()] > d.Econ.LivenessWindow {
			_, _ = governance.ApplyAutoSlash(snap, d.Econ, types.Evidence{
				Offender: key,
				Kind:     types.FaultLiveness,
				Height:   input.Height,
			})
			delete(snap.LivenessMisses, key.Key())
		}
	}
}

// flushScheduledCredits moves due ScheduledFraCredit entries into the
// PayoutIntent queue (spec.md §4.D step 5), in Seq order so same-height
// credits enqueue deterministically.
func (d *Driver) flushScheduledCredits(snap *state.Snapshot, height uint64) {
	sort.SliceStable(snap.Scheduled, func(i, j int) bool { return snap.Scheduled[i].Seq < snap.Scheduled[j].Seq })
	var remaining []types.ScheduledFraCredit
	for _, c := range snap.Scheduled {
		if c.ReleaseHeight > height {
			remaining = append(remaining, c)
			continue
		}
		seq := d.nextPayoutSeq(snap)()
		snap.PayoutQueue = append(snap.PayoutQueue, types.PayoutIntent{
			ID:            d.newIntentID(seq),
			TargetAddress: c.Address,
			Amount:        c.Amount,
			Reason:        types.PayoutFraDistribution,
			CreatedHeight: height,
			Seq:           seq,
		})
	}
	snap.Scheduled = remaining
}

func (d *Driver) applySettledPayouts(snap *state.Snapshot, payoutEvents []events.Event) {
	for _, ev := range payoutEvents {
		settled, ok := ev.(events.PayoutSettled)
		if !ok {
			continue
		}
		_ = d.Ledger.ApplyPayout(settled.Target, settled.Amount)
	}
}

// diff computes the validator-diff entries that changed between the set
// published at h-1 and the freshly computed set for h (spec.md §6.1, §8
// property "Active-set correctness"): an entry per validator that entered or
// left the active set, new_power=0 meaning "remove". powers supplies each
// entering validator's voting_power as of h.
func diff(previous, current []types.TdPubKey, powers map[string]uint64) []types.ValidatorUpdate {
	prevSet := make(map[string]bool, len(previous))
	for _, k := range previous {
		prevSet[k.Key()] = true
	}
	currSet := make(map[string]bool, len(current))
	for _, k := range current {
		currSet[k.Key()] = true
	}
	var out []types.ValidatorUpdate
	for _, k := range current {
		if !prevSet[k.Key()] {
			out = append(out, types.ValidatorUpdate{TdPubKey: k, NewPower: powers[k.Key()]})
		}
	}
	for _, k := range previous {
		if !currSet[k.Key()] {
			out = append(out, types.ValidatorUpdate{TdPubKey: k, NewPower: 0})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TdPubKey.Less(out[j].TdPubKey) })
	return out
}

// newIntentID derives a PayoutIntent's ID from its enqueue Seq (spec.md §5
// determinism: two nodes replaying the same block stream must assign the
// same Seq via nextPayoutSeq, so the ID they derive from it matches too).
// It replaces a prior uuid.NewString() implementation, which produced a
// different ID on every replay and corrupted CanonicalHash.
func (d *Driver) newIntentID(seq uint64) string { return types.PayoutIntentID(seq) }

// newRecordID returns a closure that derives each GovernanceRecord's ID from
// snap.NextRecordSeq, the record analogue of nextPayoutSeq.
func (d *Driver) newRecordID(snap *state.Snapshot) func() string {
	return func() string {
		seq := snap.NextRecordSeq
		snap.NextRecordSeq++
		return types.GovernanceRecordID(seq)
	}
}

func (d *Driver) nextPayoutSeq(snap *state.Snapshot) func() uint64 {
	return func() uint64 {
		seq := snap.NextPayoutSeq
		snap.NextPayoutSeq++
		return seq
	}
}

func (d *Driver) nextScheduledSeqOnce(snap *state.Snapshot) func() uint64 {
	return func() uint64 {
		seq := snap.NextScheduledSeq
		snap.NextScheduledSeq++
		return seq
	}
}
