package events

import "stakingcore/core/types"

const (
	TypeDelegationBonded    = "delegation.bonded"
	TypeDelegationIncreased = "delegation.increased"
	TypeUndelegateInitiated = "delegation.undelegate_initiated"
	TypeDelegationSettled   = "delegation.settled"
)

// DelegationBonded is emitted the first time a delegator bonds to a
// validator, creating a new Delegation row (spec §4.C).
type DelegationBonded struct {
	Delegator [20]byte
	Validator types.TdPubKey
	Amount    types.Amount
	Height    uint64
}

func (DelegationBonded) EventType() string { return TypeDelegationBonded }

func (e DelegationBonded) Event() *types.Event {
	return &types.Event{Type: TypeDelegationBonded, Attributes: map[string]string{
		"delegator": addr(e.Delegator),
		"validator": valAddr(e.Validator),
		"amount":    e.Amount.String(),
		"height":    u64(e.Height),
	}}
}

// DelegationIncreased is emitted when a delegator appends stake to an
// existing Bonded delegation (spec §4.C).
type DelegationIncreased struct {
	Delegator    [20]byte
	Validator    types.TdPubKey
	Added        types.Amount
	NewPrincipal types.Amount
}

func (DelegationIncreased) EventType() string { return TypeDelegationIncreased }

func (e DelegationIncreased) Event() *types.Event {
	return &types.Event{Type: TypeDelegationIncreased, Attributes: map[string]string{
		"delegator":    addr(e.Delegator),
		"validator":    valAddr(e.Validator),
		"added":        e.Added.String(),
		"newPrincipal": e.NewPrincipal.String(),
	}}
}

// UndelegateInitiated is emitted when a Bonded delegation transitions to
// Unbonding (spec §4.C).
type UndelegateInitiated struct {
	Delegator          [20]byte
	Validator          types.TdPubKey
	Principal          types.Amount
	UnbondFinishHeight uint64
}

func (UndelegateInitiated) EventType() string { return TypeUndelegateInitiated }

func (e UndelegateInitiated) Event() *types.Event {
	return &types.Event{Type: TypeUndelegateInitiated, Attributes: map[string]string{
		"delegator":          addr(e.Delegator),
		"validator":          valAddr(e.Validator),
		"principal":          e.Principal.String(),
		"unbondFinishHeight": u64(e.UnbondFinishHeight),
	}}
}

// DelegationSettled is emitted when an Unbonding delegation's principal is
// released to the delegator and the row is removed (spec §4.C).
type DelegationSettled struct {
	Delegator [20]byte
	Validator types.TdPubKey
	Principal types.Amount
	Height    uint64
}

func (DelegationSettled) EventType() string { return TypeDelegationSettled }

func (e DelegationSettled) Event() *types.Event {
	return &types.Event{Type: TypeDelegationSettled, Attributes: map[string]string{
		"delegator": addr(e.Delegator),
		"validator": valAddr(e.Validator),
		"principal": e.Principal.String(),
		"height":    u64(e.Height),
	}}
}
