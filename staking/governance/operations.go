package governance

import (
	"stakingcore/core/errors"
	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/observability"
	"stakingcore/staking/params"
	"stakingcore/staking/pause"
	"stakingcore/staking/registry"
)

// ApplyValidatorUpdate gates and applies a ValidatorUpdate op (spec.md
// §4.F, §6.3). Each diff entry either upserts or removes (by tombstoning)
// a validator; takes effect immediately in the registry, with the
// consensus-visible power change landing at h+2 through the normal active
// set diff (spec.md §4.G).
func ApplyValidatorUpdate(snap *state.Snapshot, econ params.EconomicConfig, op types.ValidatorUpdateOp, height uint64, newRecordID func() string) ([]events.Event, *errors.StakingError) {
	weightBps, err := MeetsThreshold(snap, econ, types.ValidatorUpdateDigest(op), op.Signers)
	if err != nil {
		return nil, err
	}
	var out []events.Event
	for _, entry := range op.Diff {
		if entry.Remove {
			if serr := registry.SetSanction(snap, entry.TdPubKey, types.SanctionTombstoned, height); serr != nil {
				return nil, serr
			}
			out = append(out, events.ValidatorTombstoned{Validator: entry.TdPubKey, Height: height, Fault: types.FaultAdministrative})
			continue
		}
		ev, serr := registry.UpsertValidator(snap, entry.TdPubKey, entry.RewardsAddress, entry.CommissionBps, entry.Memo)
		if serr != nil {
			return nil, serr
		}
		out = append(out, ev)
	}
	recordID := newRecordID()
	snap.Records = append(snap.Records, types.GovernanceRecord{
		ID:              recordID,
		Kind:            types.RecordValidatorUpdate,
		AppliedHeight:   height,
		SignerWeightBps: weightBps,
		Summary:         "validator_update",
	})
	out = append(out, events.GovernanceOpApplied{RecordID: recordID, Kind: types.RecordValidatorUpdate, Height: height, SignerWeightBps: weightBps, Summary: "validator_update"})
	return out, nil
}

// ApplyFraDistribution gates and applies a FraDistribution op: entries are
// scheduled credits from coinbase, not minted immediately (spec.md §4.F,
// §6.3).
func ApplyFraDistribution(snap *state.Snapshot, econ params.EconomicConfig, op types.FraDistributionOp, height uint64, nextScheduledSeq func() uint64, newRecordID func() string) ([]events.Event, *errors.StakingError) {
	weightBps, err := MeetsThreshold(snap, econ, types.FraDistributionDigest(op), op.Signers)
	if err != nil {
		return nil, err
	}
	for _, entry := range op.Entries {
		snap.Scheduled = append(snap.Scheduled, types.ScheduledFraCredit{
			Address:       entry.Address,
			Amount:        entry.Amount,
			ReleaseHeight: entry.ReleaseHeight,
			Seq:           nextScheduledSeq(),
		})
	}
	recordID := newRecordID()
	snap.Records = append(snap.Records, types.GovernanceRecord{
		ID:              recordID,
		Kind:            types.RecordFraDistribution,
		AppliedHeight:   height,
		SignerWeightBps: weightBps,
		Summary:         "fra_distribution",
	})
	return []events.Event{events.GovernanceOpApplied{RecordID: recordID, Kind: types.RecordFraDistribution, Height: height, SignerWeightBps: weightBps, Summary: "fra_distribution"}}, nil
}

// ApplyGovernance gates and applies a Governance op carrying fault evidence
// (spec.md §4.F, §6.3): it slashes the target the same way auto-slash does,
// but requires multi-sig rather than relying solely on consensus-signed
// evidence.
func ApplyGovernance(snap *state.Snapshot, econ params.EconomicConfig, op types.GovernanceOp, newRecordID func() string) ([]events.Event, *errors.StakingError) {
	weightBps, err := MeetsThreshold(snap, econ, types.GovernanceDigest(op), op.Signers)
	if err != nil {
		return nil, err
	}
	ev, serr := ApplyAutoSlash(snap, econ, types.Evidence{
		Offender: op.Target,
		Kind:     op.FaultKind,
		Height:   op.Height,
		Ref:      op.EvidenceRef,
	})
	if serr != nil {
		return nil, serr
	}
	recordID := newRecordID()
	snap.Records = append(snap.Records, types.GovernanceRecord{
		ID:              recordID,
		Kind:            types.RecordGovernance,
		AppliedHeight:   op.Height,
		SignerWeightBps: weightBps,
		Summary:         "governance_slash:" + op.FaultKind.String(),
	})
	out := append([]events.Event{}, ev...)
	out = append(out, events.GovernanceOpApplied{RecordID: recordID, Kind: types.RecordGovernance, Height: op.Height, SignerWeightBps: weightBps, Summary: "governance_slash:" + op.FaultKind.String()})
	return out, nil
}

// ApplyModulePause gates and applies a ModulePause op, toggling one staking
// sub-operation's pause flag under the same multi-sig threshold as the other
// gated ops.
func ApplyModulePause(snap *state.Snapshot, econ params.EconomicConfig, op types.ModulePauseOp, height uint64, newRecordID func() string) ([]events.Event, *errors.StakingError) {
	weightBps, err := MeetsThreshold(snap, econ, types.ModulePauseDigest(op), op.Signers)
	if err != nil {
		return nil, err
	}
	pause.Set(snap, op.Module, op.Paused)
	observability.StakingCore().SetModulePaused(op.Module, op.Paused)
	recordID := newRecordID()
	summary := "module_pause:" + op.Module
	if !op.Paused {
		summary = "module_resume:" + op.Module
	}
	snap.Records = append(snap.Records, types.GovernanceRecord{
		ID:              recordID,
		Kind:            types.RecordModulePause,
		AppliedHeight:   height,
		SignerWeightBps: weightBps,
		Summary:         summary,
	})
	return []events.Event{events.GovernanceOpApplied{RecordID: recordID, Kind: types.RecordModulePause, Height: height, SignerWeightBps: weightBps, Summary: summary}}, nil
}
