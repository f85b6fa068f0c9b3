package events

import "stakingcore/core/types"

const (
	TypeGovernanceOpApplied  = "governance.op_applied"
	TypeGovernanceOpRejected = "governance.op_rejected"
	TypeAutoSlashApplied     = "governance.auto_slash_applied"
)

// GovernanceOpApplied is emitted when a weighted multi-sig gated operation
// (ValidatorUpdate, Governance, FraDistribution) clears SIG_THRESHOLD and is
// applied (spec §4.F, §6.3).
type GovernanceOpApplied struct {
	RecordID        string
	Kind            types.GovernanceRecordKind
	Height          uint64
	SignerWeightBps uint32
	Summary         string
}

func (GovernanceOpApplied) EventType() string { return TypeGovernanceOpApplied }

func (e GovernanceOpApplied) Event() *types.Event {
	return &types.Event{Type: TypeGovernanceOpApplied, Attributes: map[string]string{
		"recordId":        e.RecordID,
		"height":          u64(e.Height),
		"signerWeightBps": formatBps(e.SignerWeightBps),
		"summary":         e.Summary,
	}}
}

// GovernanceOpRejected is emitted when a submitted gated operation fails to
// clear SIG_THRESHOLD or carries duplicate/invalid signers (spec §4.F).
type GovernanceOpRejected struct {
	Height          uint64
	SignerWeightBps uint32
	Reason          string
}

func (GovernanceOpRejected) EventType() string { return TypeGovernanceOpRejected }

func (e GovernanceOpRejected) Event() *types.Event {
	return &types.Event{Type: TypeGovernanceOpRejected, Attributes: map[string]string{
		"height":          u64(e.Height),
		"signerWeightBps": formatBps(e.SignerWeightBps),
		"reason":          e.Reason,
	}}
}

// AutoSlashApplied is emitted when BeginBlock evidence triggers the
// evidence-driven fault table without requiring multi-sig (spec §4.F).
type AutoSlashApplied struct {
	Offender types.TdPubKey
	Fault    types.FaultKind
	Height   uint64
	Slashed  types.Amount
	Sanction types.Sanction
}

func (AutoSlashApplied) EventType() string { return TypeAutoSlashApplied }

func (e AutoSlashApplied) Event() *types.Event {
	return &types.Event{Type: TypeAutoSlashApplied, Attributes: map[string]string{
		"offender": valAddr(e.Offender),
		"fault":    e.Fault.String(),
		"height":   u64(e.Height),
		"slashed":  e.Slashed.String(),
		"sanction": e.Sanction.String(),
	}}
}
