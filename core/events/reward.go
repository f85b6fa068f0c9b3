package events

import "stakingcore/core/types"

const (
	TypeBlockRewardMinted          = "reward.block_minted"
	TypeRewardAccrued              = "reward.accrued"
	TypeRewardClaimed              = "reward.claimed"
	TypeValidatorRewardsClaimed    = "reward.validator_claimed"
)

// BlockRewardMinted is emitted once per block by the Reward Engine after it
// splits the block reward into proposer bonus, commission, and delegator
// shares (spec §4.D).
type BlockRewardMinted struct {
	Height         uint64
	Proposer       types.TdPubKey
	Total          types.Amount
	ProposerBonus  types.Amount
	CommissionPaid types.Amount
	DelegatorPool  types.Amount
	Dust           types.Amount
}

func (BlockRewardMinted) EventType() string { return TypeBlockRewardMinted }

func (e BlockRewardMinted) Event() *types.Event {
	return &types.Event{Type: TypeBlockRewardMinted, Attributes: map[string]string{
		"height":         u64(e.Height),
		"proposer":       valAddr(e.Proposer),
		"total":          e.Total.String(),
		"proposerBonus":  e.ProposerBonus.String(),
		"commissionPaid": e.CommissionPaid.String(),
		"delegatorPool":  e.DelegatorPool.String(),
		"dust":           e.Dust.String(),
	}}
}

// RewardAccrued is emitted when a delegation's pro-rata share of the
// delegator pool is added to its AccruedReward (spec §4.D).
type RewardAccrued struct {
	Delegator [20]byte
	Validator types.TdPubKey
	Amount    types.Amount
	Height    uint64
}

func (RewardAccrued) EventType() string { return TypeRewardAccrued }

func (e RewardAccrued) Event() *types.Event {
	return &types.Event{Type: TypeRewardAccrued, Attributes: map[string]string{
		"delegator": addr(e.Delegator),
		"validator": valAddr(e.Validator),
		"amount":    e.Amount.String(),
		"height":    u64(e.Height),
	}}
}

// RewardClaimed is emitted when a delegation's AccruedReward is drained into
// a new PayoutIntent (spec §4.D).
type RewardClaimed struct {
	Delegator [20]byte
	Validator types.TdPubKey
	Amount    types.Amount
	IntentID  string
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardClaimed, Attributes: map[string]string{
		"delegator": addr(e.Delegator),
		"validator": valAddr(e.Validator),
		"amount":    e.Amount.String(),
		"intentId":  e.IntentID,
	}}
}

// ValidatorRewardsClaimed is emitted when a validator's own
// AccumulatedRewards (proposer bonus plus commission cuts) is drained into a
// PayoutIntent against its VRA, the validator-level analogue of
// RewardClaimed (spec §4.B "accumulated_rewards (unpaid)").
type ValidatorRewardsClaimed struct {
	Validator types.TdPubKey
	Amount    types.Amount
	IntentID  string
}

func (ValidatorRewardsClaimed) EventType() string { return TypeValidatorRewardsClaimed }

func (e ValidatorRewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeValidatorRewardsClaimed, Attributes: map[string]string{
		"validator": valAddr(e.Validator),
		"amount":    e.Amount.String(),
		"intentId":  e.IntentID,
	}}
}
