package types

// Coinbase is the module's sole disbursement account: a running balance
// credited with each block's fee inflow by the Block Driver and drawn down
// by the Coinbase Payer. It never mints; reward claims, unbonded principal
// and FraDistribution entries reach it only as PayoutIntents that debit it
// (spec §3.1).
type Coinbase struct {
	Balance Amount
	// Stalled is set once a PayoutIntent could not be paid in full and
	// stays set until the queue drains (spec §4.E, property P-STALL).
	Stalled bool
}

func (c Coinbase) Clone() Coinbase { return c }
