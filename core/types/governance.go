package types

import "strconv"

// FaultKind enumerates the evidence-driven auto-slash fault table (spec §4.F).
type FaultKind uint8

const (
	FaultDoubleSign FaultKind = iota
	FaultLightClientAttack
	FaultLiveness
	// FaultAdministrative tags a ValidatorUpdate removal: no evidence, no
	// slash, just a multi-sig-authorized exit from the registry.
	FaultAdministrative
)

func (f FaultKind) String() string {
	switch f {
	case FaultDoubleSign:
		return "double_sign"
	case FaultLightClientAttack:
		return "light_client_attack"
	case FaultLiveness:
		return "liveness"
	case FaultAdministrative:
		return "administrative"
	default:
		return "unknown"
	}
}

// Signer is one signature over a gated governance operation. It carries no
// weight of its own: the voting power it contributes is looked up from the
// active set at the time the operation is applied (spec §4.F, §9).
type Signer struct {
	TdPubKey  TdPubKey
	Signature []byte
}

// ValidatorUpdateEntry is one add/remove/modify instruction inside a
// ValidatorUpdate operation.
type ValidatorUpdateEntry struct {
	TdPubKey       TdPubKey
	Remove         bool
	RewardsAddress [20]byte
	CommissionBps  uint32
	Memo           string
}

// ValidatorUpdateOp is the `ValidatorUpdate` operation (spec §6.3).
type ValidatorUpdateOp struct {
	Diff    []ValidatorUpdateEntry
	Signers []Signer
}

// GovernanceOp is the `Governance` operation carrying fault evidence (spec §6.3).
type GovernanceOp struct {
	Target      TdPubKey
	FaultKind   FaultKind
	Height      uint64
	EvidenceRef []byte
	Signers     []Signer
}

// FraDistributionEntry is one scheduled credit inside a FraDistribution op.
type FraDistributionEntry struct {
	Address       [20]byte
	Amount        Amount
	ReleaseHeight uint64
}

// FraDistributionOp is the `FraDistribution` operation (spec §6.3).
type FraDistributionOp struct {
	Entries []FraDistributionEntry
	Signers []Signer
}

// ModulePauseOp pauses or resumes one staking sub-operation module under the
// same SIG_THRESHOLD gate as the other governance ops. The spec names no
// pause mechanism directly; this is a supplemented op grounded on the
// teacher's native/common module-pause idiom.
type ModulePauseOp struct {
	Module  string
	Paused  bool
	Signers []Signer
}

// GovernanceRecordKind tags which op kind a GovernanceRecord captures.
type GovernanceRecordKind uint8

const (
	RecordValidatorUpdate GovernanceRecordKind = iota
	RecordGovernance
	RecordFraDistribution
	RecordAutoSlash
	RecordModulePause
)

// GovernanceRecord is an applied gated operation with its signer set and
// cumulative weight, persisted for audit (spec §3.1).
type GovernanceRecord struct {
	// ID is derived from Seq (see GovernanceRecordID), never randomly
	// generated, so Records stay replay-safe even though CanonicalHash does
	// not presently cover them.
	ID              string
	Kind            GovernanceRecordKind
	AppliedHeight   uint64
	SignerWeightBps uint32 // cumulative weight as bps of the active set total
	Summary         string
}

// GovernanceRecordID derives a GovernanceRecord's ID from its application
// sequence number (Snapshot.NextRecordSeq), the record analogue of
// PayoutIntentID.
func GovernanceRecordID(seq uint64) string {
	return "record-" + strconv.FormatUint(seq, 10)
}
