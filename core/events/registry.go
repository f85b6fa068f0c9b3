package events

import "stakingcore/core/types"

const (
	TypeValidatorRegistered       = "validator.registered"
	TypeValidatorMetadataUpdated  = "validator.metadata_updated"
	TypeValidatorJailed           = "validator.jailed"
	TypeValidatorUnjailed         = "validator.unjailed"
	TypeValidatorTombstoned       = "validator.tombstoned"
)

// ValidatorRegistered is emitted when a new validator joins the registry
// via a qualifying self-delegation (spec §4.B).
type ValidatorRegistered struct {
	Validator      types.TdPubKey
	RewardsAddress [20]byte
	CommissionBps  uint32
}

func (ValidatorRegistered) EventType() string { return TypeValidatorRegistered }

func (e ValidatorRegistered) Event() *types.Event {
	return &types.Event{Type: TypeValidatorRegistered, Attributes: map[string]string{
		"validator":      valAddr(e.Validator),
		"rewardsAddress": addr(e.RewardsAddress),
		"commissionBps":  u64(uint64(e.CommissionBps)),
	}}
}

// ValidatorMetadataUpdated is emitted when a validator changes its rewards
// address, commission rate, or memo (spec §4.B).
type ValidatorMetadataUpdated struct {
	Validator      types.TdPubKey
	RewardsAddress [20]byte
	CommissionBps  uint32
	Memo           string
}

func (ValidatorMetadataUpdated) EventType() string { return TypeValidatorMetadataUpdated }

func (e ValidatorMetadataUpdated) Event() *types.Event {
	attrs := map[string]string{
		"validator":      valAddr(e.Validator),
		"rewardsAddress": addr(e.RewardsAddress),
		"commissionBps":  u64(uint64(e.CommissionBps)),
	}
	if e.Memo != "" {
		attrs["memo"] = e.Memo
	}
	return &types.Event{Type: TypeValidatorMetadataUpdated, Attributes: attrs}
}

// ValidatorJailed is emitted when the registry sanctions a validator
// (spec §4.B, §4.F).
type ValidatorJailed struct {
	Validator types.TdPubKey
	Height    uint64
	Reason    string
}

func (ValidatorJailed) EventType() string { return TypeValidatorJailed }

func (e ValidatorJailed) Event() *types.Event {
	return &types.Event{Type: TypeValidatorJailed, Attributes: map[string]string{
		"validator": valAddr(e.Validator),
		"height":    u64(e.Height),
		"reason":    e.Reason,
	}}
}

// ValidatorUnjailed is emitted when a jailed validator's jail period expires
// and it self-reinstates (spec §4.F).
type ValidatorUnjailed struct {
	Validator types.TdPubKey
	Height    uint64
}

func (ValidatorUnjailed) EventType() string { return TypeValidatorUnjailed }

func (e ValidatorUnjailed) Event() *types.Event {
	return &types.Event{Type: TypeValidatorUnjailed, Attributes: map[string]string{
		"validator": valAddr(e.Validator),
		"height":    u64(e.Height),
	}}
}

// ValidatorTombstoned is emitted when a validator is permanently excluded
// from the active set (spec §4.F, non-reversible sanction).
type ValidatorTombstoned struct {
	Validator types.TdPubKey
	Height    uint64
	Fault     types.FaultKind
}

func (ValidatorTombstoned) EventType() string { return TypeValidatorTombstoned }

func (e ValidatorTombstoned) Event() *types.Event {
	return &types.Event{Type: TypeValidatorTombstoned, Attributes: map[string]string{
		"validator": valAddr(e.Validator),
		"height":    u64(e.Height),
		"fault":     e.Fault.String(),
	}}
}
