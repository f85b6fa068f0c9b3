package coinbase

import (
	"testing"

	"stakingcore/core/state"
	"stakingcore/core/types"
)

func intent(id string, amount uint64, seq uint64) types.PayoutIntent {
	return types.PayoutIntent{ID: id, Amount: types.NewAmount(amount), Reason: types.PayoutBlockReward, Seq: seq}
}

func TestRunDrainsQueueInFIFOOrder(t *testing.T) {
	snap := state.New()
	snap.Coinbase.Balance = types.NewAmount(100)
	snap.PayoutQueue = []types.PayoutIntent{intent("a", 30, 0), intent("b", 40, 1), intent("c", 20, 2)}

	evs := Run(snap, 10)

	if len(snap.PayoutQueue) != 0 {
		t.Fatalf("expected queue fully drained, got %d remaining", len(snap.PayoutQueue))
	}
	if snap.Coinbase.Balance.Uint64() != 10 {
		t.Fatalf("expected 10 remaining balance, got %s", snap.Coinbase.Balance.String())
	}
	if len(evs) != 3 {
		t.Fatalf("expected 3 settlement events, got %d", len(evs))
	}
}

func TestRunStallsWhenHeadDoesNotFit(t *testing.T) {
	snap := state.New()
	snap.Coinbase.Balance = types.NewAmount(10)
	snap.PayoutQueue = []types.PayoutIntent{intent("a", 50, 0), intent("b", 5, 1)}

	evs := Run(snap, 10)

	if len(snap.PayoutQueue) != 2 {
		t.Fatalf("expected no intents paid while head doesn't fit, got %d remaining", len(snap.PayoutQueue))
	}
	if !snap.Coinbase.Stalled {
		t.Fatalf("expected coinbase to be marked stalled")
	}
	found := false
	for _, ev := range evs {
		if ev.EventType() == "coinbase.stalled" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a coinbase.stalled event, got %v", evs)
	}
}

func TestRunEmitsResumedOnceQueueFitsAgain(t *testing.T) {
	snap := state.New()
	snap.Coinbase.Balance = types.NewAmount(5)
	snap.Coinbase.Stalled = true
	snap.PayoutQueue = []types.PayoutIntent{intent("a", 5, 0)}

	evs := Run(snap, 11)

	if snap.Coinbase.Stalled {
		t.Fatalf("expected coinbase to resume once the head intent fits")
	}
	foundResumed := false
	for _, ev := range evs {
		if ev.EventType() == "coinbase.resumed" {
			foundResumed = true
		}
	}
	if !foundResumed {
		t.Fatalf("expected a coinbase.resumed event, got %v", evs)
	}
}

func TestRunNeverPartiallyPaysAnIntent(t *testing.T) {
	snap := state.New()
	snap.Coinbase.Balance = types.NewAmount(99)
	snap.PayoutQueue = []types.PayoutIntent{intent("a", 100, 0)}

	Run(snap, 1)

	if len(snap.PayoutQueue) != 1 {
		t.Fatalf("expected the unpayable intent to remain queued in full")
	}
	if snap.Coinbase.Balance.Uint64() != 99 {
		t.Fatalf("expected balance untouched on a stall, got %s", snap.Coinbase.Balance.String())
	}
}
