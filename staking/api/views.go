package api

import (
	"encoding/hex"

	"stakingcore/core/state"
	"stakingcore/core/types"
)

// The views below are the read-only query API's wire shapes (SPEC_FULL.md
// §A.6): hex-encoded identities over the committed Snapshot, never the
// Snapshot itself, so a caller can never observe or mutate live driver
// state (spec.md §5).

type validatorView struct {
	TdPubKey           string `json:"td_pubkey"`
	RewardsAddress     string `json:"rewards_address"`
	CommissionRateBps  uint32 `json:"commission_rate_bps"`
	Memo               string `json:"memo"`
	SelfBond           string `json:"self_bond"`
	AccumulatedRewards string `json:"accumulated_rewards"`
	Sanction           string `json:"sanction"`
	VotingPower        string `json:"voting_power"`
	Active             bool   `json:"active"`
}

type delegationView struct {
	Delegator          string `json:"delegator"`
	Validator          string `json:"validator"`
	Principal          string `json:"principal"`
	State              string `json:"state"`
	UnbondFinishHeight uint64 `json:"unbond_finish_height,omitempty"`
	AccruedReward      string `json:"accrued_reward"`
}

type payoutView struct {
	ID            string `json:"id"`
	TargetAddress string `json:"target_address"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
	CreatedHeight uint64 `json:"created_height"`
	Seq           uint64 `json:"seq"`
}

type snapshotSummaryView struct {
	LastHeight       uint64   `json:"last_height"`
	ActiveSet        []string `json:"active_set"`
	CoinbaseBalance  string   `json:"coinbase_balance"`
	CoinbaseStalled  bool     `json:"coinbase_stalled"`
	PayoutQueueDepth int      `json:"payout_queue_depth"`
	BurnedTotal      string   `json:"burned_total"`
}

func toValidatorView(v *types.Validator, activeSet map[string]bool, power types.Amount) validatorView {
	return validatorView{
		TdPubKey:           hex.EncodeToString(v.TdPubKey.Digest[:]),
		RewardsAddress:     hex.EncodeToString(v.RewardsAddress[:]),
		CommissionRateBps:  v.CommissionRateBps,
		Memo:               v.Memo,
		SelfBond:           v.SelfBond.String(),
		AccumulatedRewards: v.AccumulatedRewards.String(),
		Sanction:           v.Sanction.String(),
		VotingPower:        power.String(),
		Active:             activeSet[v.TdPubKey.Key()],
	}
}

func toDelegationView(d *types.Delegation) delegationView {
	return delegationView{
		Delegator:          hex.EncodeToString(d.Delegator[:]),
		Validator:          hex.EncodeToString(d.Validator.Digest[:]),
		Principal:          d.Principal.String(),
		State:              d.State.String(),
		UnbondFinishHeight: d.UnbondFinishHeight,
		AccruedReward:      d.AccruedReward.String(),
	}
}

func toPayoutView(p types.PayoutIntent) payoutView {
	return payoutView{
		ID:            p.ID,
		TargetAddress: hex.EncodeToString(p.TargetAddress[:]),
		Amount:        p.Amount.String(),
		Reason:        p.Reason.String(),
		CreatedHeight: p.CreatedHeight,
		Seq:           p.Seq,
	}
}

func toSnapshotSummaryView(snap *state.Snapshot) snapshotSummaryView {
	activeSet := make([]string, 0, len(snap.ActiveSet))
	for _, k := range snap.ActiveSet {
		activeSet = append(activeSet, hex.EncodeToString(k.Digest[:]))
	}
	return snapshotSummaryView{
		LastHeight:       snap.LastHeight,
		ActiveSet:        activeSet,
		CoinbaseBalance:  snap.Coinbase.Balance.String(),
		CoinbaseStalled:  snap.Coinbase.Stalled,
		PayoutQueueDepth: len(snap.PayoutQueue),
		BurnedTotal:      snap.BurnedTotal.String(),
	}
}
