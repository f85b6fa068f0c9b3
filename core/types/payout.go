package types

import "strconv"

// PayoutReason tags why a PayoutIntent was created.
type PayoutReason uint8

const (
	PayoutBlockReward PayoutReason = iota
	PayoutProposerReward
	PayoutCommission
	PayoutFraDistribution
	PayoutUnbondPrincipal
)

func (r PayoutReason) String() string {
	switch r {
	case PayoutBlockReward:
		return "block_reward"
	case PayoutProposerReward:
		return "proposer_reward"
	case PayoutCommission:
		return "commission"
	case PayoutFraDistribution:
		return "fra_distribution"
	case PayoutUnbondPrincipal:
		return "unbond_principal"
	default:
		return "unknown"
	}
}

// PayoutIntent is a pending credit from the coinbase to a ledger address.
// The queue is FIFO per creation order (spec §3.1).
type PayoutIntent struct {
	// ID is derived from Seq (see PayoutIntentID), never randomly generated:
	// it is mixed into CanonicalHash, so it must come out byte-identical on
	// every node replaying the same block stream.
	ID            string
	TargetAddress [20]byte
	Amount        Amount
	Reason        PayoutReason
	CreatedHeight uint64
	// Seq breaks ties deterministically when two intents are created at the
	// same height; it is the monotonic enqueue counter, never reordered.
	Seq uint64
}

func (p PayoutIntent) Clone() PayoutIntent { return p }

// PayoutIntentID derives a PayoutIntent's ID from its enqueue sequence
// number. seq is already unique and deterministic (Snapshot.NextPayoutSeq is
// advanced the same way by every node applying the same ops), so the ID
// needs no randomness of its own.
func PayoutIntentID(seq uint64) string {
	return "payout-" + strconv.FormatUint(seq, 10)
}

// ScheduledFraCredit is one entry of a FraDistribution operation: a credit
// from coinbase that becomes a PayoutIntent once its ReleaseHeight is
// reached (spec §4.D.5, §6.3).
type ScheduledFraCredit struct {
	Address       [20]byte
	Amount        Amount
	ReleaseHeight uint64
	// Seq orders same-height scheduled credits deterministically.
	Seq uint64
}

func (c ScheduledFraCredit) Clone() ScheduledFraCredit { return c }
