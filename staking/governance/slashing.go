package governance

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"

	"stakingcore/core/errors"
	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/observability"
	"stakingcore/staking/params"
	"stakingcore/staking/registry"
)

// ApplyAutoSlash applies the evidence-driven auto-slash fault table (spec.md
// §4.F): no multi-sig is required, since the consensus driver's own
// signature over the evidence is sufficient authority. Principal slash
// reduces every one of the offender's Bonded/Unbonding delegations'
// principal by floor(principal * frac); reward slash similarly reduces
// accrued_reward and the validator's own accumulated_rewards. Slashed
// amounts are burned, never credited to coinbase.
func ApplyAutoSlash(snap *state.Snapshot, econ params.EconomicConfig, ev types.Evidence) ([]events.Event, *errors.StakingError) {
	digest := evidenceDigest(ev)
	if snap.SlashedEvidence[digest] {
		return nil, nil
	}

	v, ok := snap.Validators[ev.Offender.Key()]
	if !ok {
		return nil, errors.InvalidOp(errors.ErrUnknownValidator)
	}
	penalty := econ.Penalty(ev.Kind)

	var out []events.Event
	totalSlashed := types.ZeroAmount()

	for _, d := range snap.DelegationsByValidator(v.TdPubKey) {
		if d.State == types.DelegationSettled {
			continue
		}
		if penalty.PrincipalSlashBps > 0 {
			cut := d.Principal.MulFrac(uint64(penalty.PrincipalSlashBps), 10000)
			if remaining, ok := d.Principal.Sub(cut); ok {
				d.Principal = remaining
				totalSlashed = totalSlashed.Add(cut)
				if d.IsSelfDelegation(v.RewardsAddress) {
					if reducedSelfBond, ok := v.SelfBond.Sub(cut); ok {
						v.SelfBond = reducedSelfBond
					} else {
						v.SelfBond = types.ZeroAmount()
					}
				}
			}
		}
		if penalty.RewardSlashBps > 0 && !d.AccruedReward.IsZero() {
			cut := d.AccruedReward.MulFrac(uint64(penalty.RewardSlashBps), 10000)
			if remaining, ok := d.AccruedReward.Sub(cut); ok {
				d.AccruedReward = remaining
				totalSlashed = totalSlashed.Add(cut)
			}
		}
	}

	if penalty.RewardSlashBps > 0 && !v.AccumulatedRewards.IsZero() {
		cut := v.AccumulatedRewards.MulFrac(uint64(penalty.RewardSlashBps), 10000)
		if remaining, ok := v.AccumulatedRewards.Sub(cut); ok {
			v.AccumulatedRewards = remaining
			totalSlashed = totalSlashed.Add(cut)
		}
	}

	snap.BurnedTotal = snap.BurnedTotal.Add(totalSlashed)
	snap.SlashedEvidence[digest] = true

	sanction := types.SanctionNone
	if penalty.Tombstone {
		sanction = types.SanctionTombstoned
	} else if penalty.JailBlocks > 0 {
		sanction = types.SanctionJailed
	}
	if sanction != types.SanctionNone {
		if serr := registry.SetSanction(snap, v.TdPubKey, sanction, ev.Height); serr != nil {
			return nil, serr
		}
	}

	out = append(out, events.AutoSlashApplied{
		Offender: v.TdPubKey,
		Fault:    ev.Kind,
		Height:   ev.Height,
		Slashed:  totalSlashed,
		Sanction: sanction,
	})
	if sanction == types.SanctionTombstoned {
		out = append(out, events.ValidatorTombstoned{Validator: v.TdPubKey, Height: ev.Height, Fault: ev.Kind})
	} else if sanction == types.SanctionJailed {
		out = append(out, events.ValidatorJailed{Validator: v.TdPubKey, Height: ev.Height, Reason: ev.Kind.String()})
	}
	observability.StakingCore().RecordSlashingEvent(ev.Kind.String())
	return out, nil
}

// evidenceDigest identifies one piece of evidence so a replayed
// BeginBlockInput (or a resubmitted Governance op carrying the same
// evidence) never slashes the same fault twice.
func evidenceDigest(ev types.Evidence) string {
	buf := bytes.NewBuffer(nil)
	buf.Write(ev.Offender.Digest[:])
	buf.WriteByte(byte(ev.Kind))
	_ = binary.Write(buf, binary.BigEndian, ev.Height)
	buf.Write(ev.Ref)
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
