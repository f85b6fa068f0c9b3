package types

// Evidence is a consensus-signed misbehaviour report delivered by the
// consensus driver at BeginBlock (spec §6.1). Auto-slashing requires no
// multi-sig: the consensus driver's own signature over the evidence is
// sufficient authority.
type Evidence struct {
	Offender TdPubKey
	Kind     FaultKind
	Height   uint64 // height the fault occurred at
	Ref      []byte // opaque evidence payload (vote pair, light-client proof, ...)
}

// BeginBlockInput is everything the consensus driver supplies at the start
// of a block (spec §6.1).
type BeginBlockInput struct {
	Height            uint64
	Proposer          TdPubKey
	LastCommitSigners []TdPubKey
	Evidence          []Evidence
}

// ValidatorUpdate is one entry of the diff returned to the consensus driver,
// applied at h+2 per its contract (spec §4.G, §6.1).
type ValidatorUpdate struct {
	TdPubKey TdPubKey
	NewPower uint64
}

// OpKind discriminates the eight operation payloads a block applies, modeled
// as an explicit tagged union rather than an open interface hierarchy
// (spec §9 "model fault_kind and operation variants as tagged unions with
// explicit discriminants").
type OpKind uint8

const (
	OpDelegate OpKind = iota
	OpUndelegate
	OpClaim
	OpValidatorUpdate
	OpGovernance
	OpFraDistribution
	OpClaimValidatorRewards
	OpModulePause
)

// DelegateOp is the semantic payload of a Delegation operation (spec §6.3);
// the transaction-adjacency constraints (fee_transfer_ref, self_transfer_ref)
// are the ledger collaborator's responsibility, not the core's.
type DelegateOp struct {
	Delegator [20]byte
	TdPubKey  TdPubKey
	Amount    Amount
}

// UndelegateOp is the semantic payload of an UnDelegation operation.
type UndelegateOp struct {
	Delegator [20]byte
	TdPubKey  TdPubKey
}

// ClaimOp is the semantic payload of a Claim operation; Amount is nil for
// "claim everything accrued".
type ClaimOp struct {
	Delegator [20]byte
	TdPubKey  TdPubKey
	Amount    *Amount
}

// ClaimValidatorRewardsOp is the semantic payload of a validator draining its
// own accumulated_rewards; Amount is nil for "claim everything accrued".
type ClaimValidatorRewardsOp struct {
	TdPubKey TdPubKey
	Amount   *Amount
}

// Operation is one block-ordered instruction the driver applies during
// step 2 of begin_block/end_block (spec §4.G). Exactly one of the typed
// fields matching Kind is populated.
type Operation struct {
	Kind                  OpKind
	Delegate              *DelegateOp
	Undelegate            *UndelegateOp
	Claim                 *ClaimOp
	ValidatorUpdate       *ValidatorUpdateOp
	Governance            *GovernanceOp
	FraDistribution       *FraDistributionOp
	ClaimValidatorRewards *ClaimValidatorRewardsOp
	ModulePause           *ModulePauseOp
}
