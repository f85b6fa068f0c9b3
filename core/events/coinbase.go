package events

import "stakingcore/core/types"

const (
	TypePayoutIntentQueued = "coinbase.payout_queued"
	TypePayoutSettled      = "coinbase.payout_settled"
	TypeCoinbaseStalled    = "coinbase.stalled"
	TypeCoinbaseResumed    = "coinbase.resumed"
)

// PayoutIntentQueued is emitted whenever the Reward Engine or Governance
// component enqueues a new PayoutIntent (spec §4.E).
type PayoutIntentQueued struct {
	IntentID string
	Target   [20]byte
	Amount   types.Amount
	Reason   types.PayoutReason
	Height   uint64
}

func (PayoutIntentQueued) EventType() string { return TypePayoutIntentQueued }

func (e PayoutIntentQueued) Event() *types.Event {
	return &types.Event{Type: TypePayoutIntentQueued, Attributes: map[string]string{
		"intentId": e.IntentID,
		"target":   addr(e.Target),
		"amount":   e.Amount.String(),
		"reason":   e.Reason.String(),
		"height":   u64(e.Height),
	}}
}

// PayoutSettled is emitted when the Coinbase Payer pays an intent in full
// and dequeues it (spec §4.E).
type PayoutSettled struct {
	IntentID string
	Target   [20]byte
	Amount   types.Amount
	Height   uint64
}

func (PayoutSettled) EventType() string { return TypePayoutSettled }

func (e PayoutSettled) Event() *types.Event {
	return &types.Event{Type: TypePayoutSettled, Attributes: map[string]string{
		"intentId": e.IntentID,
		"target":   addr(e.Target),
		"amount":   e.Amount.String(),
		"height":   u64(e.Height),
	}}
}

// CoinbaseStalled is emitted the block the head-of-queue intent first
// cannot be paid in full; the payer leaves it queued rather than partial
// paying it (spec §4.E, property P-STALL).
type CoinbaseStalled struct {
	Height        uint64
	IntentID      string
	Required      types.Amount
	Available     types.Amount
}

func (CoinbaseStalled) EventType() string { return TypeCoinbaseStalled }

func (e CoinbaseStalled) Event() *types.Event {
	return &types.Event{Type: TypeCoinbaseStalled, Attributes: map[string]string{
		"height":    u64(e.Height),
		"intentId":  e.IntentID,
		"required":  e.Required.String(),
		"available": e.Available.String(),
	}}
}

// CoinbaseResumed is emitted the block the stalled flag clears because the
// head-of-queue intent can again be paid in full.
type CoinbaseResumed struct {
	Height uint64
}

func (CoinbaseResumed) EventType() string { return TypeCoinbaseResumed }

func (e CoinbaseResumed) Event() *types.Event {
	return &types.Event{Type: TypeCoinbaseResumed, Attributes: map[string]string{
		"height": u64(e.Height),
	}}
}
