// Package coinbase implements the Coinbase Payer (spec.md §4.E): drains the
// PayoutIntent FIFO while the coinbase balance covers the head of the
// queue, publishing coinbase_stalled when it cannot.
package coinbase

import (
	"stakingcore/core/events"
	"stakingcore/core/state"
)

// Run pays out PayoutIntents in FIFO order while the coinbase balance
// covers the head of the queue. An intent that does not fit stays at the
// head for a future block — no partial payment is ever made, so a
// replaying node never observes a different queue order (spec.md §8
// property "Backpressure").
func Run(snap *state.Snapshot, height uint64) []events.Event {
	var out []events.Event
	wasStalled := snap.Coinbase.Stalled
	stalledNow := false

	for len(snap.PayoutQueue) > 0 {
		head := snap.PayoutQueue[0]
		if snap.Coinbase.Balance.LessThan(head.Amount) {
			stalledNow = true
			if !wasStalled {
				out = append(out, events.CoinbaseStalled{
					Height:    height,
					IntentID:  head.ID,
					Required:  head.Amount,
					Available: snap.Coinbase.Balance,
				})
			}
			break
		}
		remaining, ok := snap.Coinbase.Balance.Sub(head.Amount)
		if !ok {
			break
		}
		snap.Coinbase.Balance = remaining
		snap.PayoutQueue = snap.PayoutQueue[1:]
		out = append(out, events.PayoutSettled{
			IntentID: head.ID,
			Target:   head.TargetAddress,
			Amount:   head.Amount,
			Height:   height,
		})
	}

	snap.Coinbase.Stalled = stalledNow
	if wasStalled && !stalledNow {
		out = append(out, events.CoinbaseResumed{Height: height})
	}
	return out
}
