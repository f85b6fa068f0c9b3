package state

import (
	"encoding/hex"
	"fmt"

	"stakingcore/core/types"
)

// storedSnapshot is the JSON-safe shadow of Snapshot. Snapshot keys its maps
// by raw 20-byte digest strings, which are not valid UTF-8 and would be
// silently mangled by encoding/json's string-keyed map encoding; this shadow
// hex-encodes every identity and flattens maps to slices, the same
// guard the teacher's core/state/staking_keys.go shadow structs applied to
// big.Int/uint256 fields.
type storedSnapshot struct {
	Validators       []storedValidator  `json:"validators"`
	Delegations      []storedDelegation `json:"delegations"`
	CoinbaseBalance  string             `json:"coinbase_balance"`
	CoinbaseStalled  bool               `json:"coinbase_stalled"`
	PayoutQueue      []storedPayout     `json:"payout_queue"`
	Scheduled        []storedScheduled  `json:"scheduled_fra_credits"`
	Records          []types.GovernanceRecord `json:"governance_records"`
	ActiveSet        []storedTdPubKey   `json:"active_set"`
	GenesisSet       []string           `json:"genesis_set"`      // hex digests
	SlashedEvidence  []string           `json:"slashed_evidence"` // hex digests
	LivenessMisses   []storedLivenessEntry `json:"liveness_misses"`
	PausedModules    []string           `json:"paused_modules"`
	NextPayoutSeq    uint64             `json:"next_payout_seq"`
	NextScheduledSeq uint64             `json:"next_scheduled_seq"`
	NextRecordSeq    uint64             `json:"next_record_seq"`
	BurnedTotal      string             `json:"burned_total"`
	LastHeight       uint64             `json:"last_height"`
}

type storedTdPubKey struct {
	Digest string `json:"digest"` // hex
	Full   string `json:"full"`   // hex
}

func (k storedTdPubKey) toTdPubKey() (types.TdPubKey, error) {
	digest, err := hex.DecodeString(k.Digest)
	if err != nil || len(digest) != 20 {
		return types.TdPubKey{}, fmt.Errorf("state: bad td_pubkey digest %q", k.Digest)
	}
	full, err := hex.DecodeString(k.Full)
	if err != nil {
		return types.TdPubKey{}, fmt.Errorf("state: bad td_pubkey full key %q", k.Full)
	}
	var out types.TdPubKey
	copy(out.Digest[:], digest)
	out.Full = full
	return out, nil
}

func fromTdPubKey(k types.TdPubKey) storedTdPubKey {
	return storedTdPubKey{Digest: hex.EncodeToString(k.Digest[:]), Full: hex.EncodeToString(k.Full)}
}

type storedValidator struct {
	TdPubKey           storedTdPubKey `json:"td_pubkey"`
	RewardsAddress     string         `json:"rewards_address"`
	CommissionRateBps  uint32         `json:"commission_rate_bps"`
	Memo               string         `json:"memo"`
	SelfBond           string         `json:"self_bond"`
	AccumulatedRewards string         `json:"accumulated_rewards"`
	Sanction           uint8          `json:"sanction"`
	JailedAtHeight     uint64         `json:"jailed_at_height"`
	Genesis            bool           `json:"genesis"`
	Dust               string         `json:"dust"`
}

type storedDelegation struct {
	Delegator          string `json:"delegator"`
	Validator          storedTdPubKey `json:"validator"`
	Principal          string `json:"principal"`
	BondHeight         uint64 `json:"bond_height"`
	State              uint8  `json:"state"`
	UnbondFinishHeight uint64 `json:"unbond_finish_height"`
	AccruedReward      string `json:"accrued_reward"`
}

type storedPayout struct {
	ID            string `json:"id"`
	TargetAddress string `json:"target_address"`
	Amount        string `json:"amount"`
	Reason        uint8  `json:"reason"`
	CreatedHeight uint64 `json:"created_height"`
	Seq           uint64 `json:"seq"`
}

type storedLivenessEntry struct {
	TdPubKey string `json:"td_pubkey"` // hex digest
	Misses   uint64 `json:"misses"`
}

type storedScheduled struct {
	Address       string `json:"address"`
	Amount        string `json:"amount"`
	ReleaseHeight uint64 `json:"release_height"`
	Seq           uint64 `json:"seq"`
}

func toStoredSnapshot(s *Snapshot) storedSnapshot {
	out := storedSnapshot{
		CoinbaseBalance:  s.Coinbase.Balance.String(),
		CoinbaseStalled:  s.Coinbase.Stalled,
		Records:          s.Records,
		NextPayoutSeq:    s.NextPayoutSeq,
		NextScheduledSeq: s.NextScheduledSeq,
		NextRecordSeq:    s.NextRecordSeq,
		BurnedTotal:      s.BurnedTotal.String(),
		LastHeight:       s.LastHeight,
	}
	for _, key := range s.SortedValidatorKeys() {
		v := s.Validators[key]
		out.Validators = append(out.Validators, storedValidator{
			TdPubKey:           fromTdPubKey(v.TdPubKey),
			RewardsAddress:     hex.EncodeToString(v.RewardsAddress[:]),
			CommissionRateBps:  v.CommissionRateBps,
			Memo:               v.Memo,
			SelfBond:           v.SelfBond.String(),
			AccumulatedRewards: v.AccumulatedRewards.String(),
			Sanction:           uint8(v.Sanction),
			JailedAtHeight:     v.JailedAtHeight,
			Genesis:            v.Genesis,
			Dust:               v.Dust.String(),
		})
	}
	for _, key := range s.SortedDelegationKeys() {
		d := s.Delegations[key]
		out.Delegations = append(out.Delegations, storedDelegation{
			Delegator:          hex.EncodeToString(d.Delegator[:]),
			Validator:          fromTdPubKey(d.Validator),
			Principal:          d.Principal.String(),
			BondHeight:         d.BondHeight,
			State:              uint8(d.State),
			UnbondFinishHeight: d.UnbondFinishHeight,
			AccruedReward:      d.AccruedReward.String(),
		})
	}
	for _, p := range s.PayoutQueue {
		out.PayoutQueue = append(out.PayoutQueue, storedPayout{
			ID:            p.ID,
			TargetAddress: hex.EncodeToString(p.TargetAddress[:]),
			Amount:        p.Amount.String(),
			Reason:        uint8(p.Reason),
			CreatedHeight: p.CreatedHeight,
			Seq:           p.Seq,
		})
	}
	for _, c := range s.Scheduled {
		out.Scheduled = append(out.Scheduled, storedScheduled{
			Address:       hex.EncodeToString(c.Address[:]),
			Amount:        c.Amount.String(),
			ReleaseHeight: c.ReleaseHeight,
			Seq:           c.Seq,
		})
	}
	for _, v := range s.ActiveSet {
		out.ActiveSet = append(out.ActiveSet, fromTdPubKey(v))
	}
	for k := range s.GenesisSet {
		out.GenesisSet = append(out.GenesisSet, hex.EncodeToString([]byte(k)))
	}
	for k := range s.SlashedEvidence {
		out.SlashedEvidence = append(out.SlashedEvidence, hex.EncodeToString([]byte(k)))
	}
	for k, misses := range s.LivenessMisses {
		out.LivenessMisses = append(out.LivenessMisses, storedLivenessEntry{TdPubKey: hex.EncodeToString([]byte(k)), Misses: misses})
	}
	for module := range s.PausedModules {
		out.PausedModules = append(out.PausedModules, module)
	}
	return out
}

func (s storedSnapshot) toSnapshot() (*Snapshot, error) {
	out := New()
	coinbaseBalance, err := types.AmountFromString(s.CoinbaseBalance)
	if err != nil {
		return nil, fmt.Errorf("state: coinbase balance: %w", err)
	}
	out.Coinbase = types.Coinbase{Balance: coinbaseBalance, Stalled: s.CoinbaseStalled}
	burned, err := types.AmountFromString(s.BurnedTotal)
	if err != nil {
		return nil, fmt.Errorf("state: burned total: %w", err)
	}
	out.BurnedTotal = burned
	out.Records = append(out.Records, s.Records...)
	out.NextPayoutSeq = s.NextPayoutSeq
	out.NextScheduledSeq = s.NextScheduledSeq
	out.NextRecordSeq = s.NextRecordSeq
	out.LastHeight = s.LastHeight

	for _, sv := range s.Validators {
		tdKey, err := sv.TdPubKey.toTdPubKey()
		if err != nil {
			return nil, err
		}
		rewardsAddr, err := decodeAddr20(sv.RewardsAddress)
		if err != nil {
			return nil, fmt.Errorf("state: validator rewards_address: %w", err)
		}
		selfBond, err := types.AmountFromString(sv.SelfBond)
		if err != nil {
			return nil, fmt.Errorf("state: validator self_bond: %w", err)
		}
		accumulated, err := types.AmountFromString(sv.AccumulatedRewards)
		if err != nil {
			return nil, fmt.Errorf("state: validator accumulated_rewards: %w", err)
		}
		dust, err := types.AmountFromString(sv.Dust)
		if err != nil {
			return nil, fmt.Errorf("state: validator dust: %w", err)
		}
		v := &types.Validator{
			TdPubKey:           tdKey,
			RewardsAddress:     rewardsAddr,
			CommissionRateBps:  sv.CommissionRateBps,
			Memo:               sv.Memo,
			SelfBond:           selfBond,
			AccumulatedRewards: accumulated,
			Sanction:           types.Sanction(sv.Sanction),
			JailedAtHeight:     sv.JailedAtHeight,
			Genesis:            sv.Genesis,
			Dust:               dust,
		}
		out.Validators[tdKey.Key()] = v
	}

	for _, sd := range s.Delegations {
		validator, err := sd.Validator.toTdPubKey()
		if err != nil {
			return nil, err
		}
		delegator, err := decodeAddr20(sd.Delegator)
		if err != nil {
			return nil, fmt.Errorf("state: delegation delegator: %w", err)
		}
		principal, err := types.AmountFromString(sd.Principal)
		if err != nil {
			return nil, fmt.Errorf("state: delegation principal: %w", err)
		}
		accrued, err := types.AmountFromString(sd.AccruedReward)
		if err != nil {
			return nil, fmt.Errorf("state: delegation accrued_reward: %w", err)
		}
		d := &types.Delegation{
			Delegator:          delegator,
			Validator:          validator,
			Principal:          principal,
			BondHeight:         sd.BondHeight,
			State:              types.DelegationState(sd.State),
			UnbondFinishHeight: sd.UnbondFinishHeight,
			AccruedReward:      accrued,
		}
		out.Delegations[types.DelegationKey{Delegator: delegator, Validator: validator}.Key()] = d
	}

	for _, sp := range s.PayoutQueue {
		target, err := decodeAddr20(sp.TargetAddress)
		if err != nil {
			return nil, fmt.Errorf("state: payout target: %w", err)
		}
		amount, err := types.AmountFromString(sp.Amount)
		if err != nil {
			return nil, fmt.Errorf("state: payout amount: %w", err)
		}
		out.PayoutQueue = append(out.PayoutQueue, types.PayoutIntent{
			ID:            sp.ID,
			TargetAddress: target,
			Amount:        amount,
			Reason:        types.PayoutReason(sp.Reason),
			CreatedHeight: sp.CreatedHeight,
			Seq:           sp.Seq,
		})
	}

	for _, sc := range s.Scheduled {
		addrBytes, err := decodeAddr20(sc.Address)
		if err != nil {
			return nil, fmt.Errorf("state: scheduled credit address: %w", err)
		}
		amount, err := types.AmountFromString(sc.Amount)
		if err != nil {
			return nil, fmt.Errorf("state: scheduled credit amount: %w", err)
		}
		out.Scheduled = append(out.Scheduled, types.ScheduledFraCredit{
			Address:       addrBytes,
			Amount:        amount,
			ReleaseHeight: sc.ReleaseHeight,
			Seq:           sc.Seq,
		})
	}

	for _, sv := range s.ActiveSet {
		tdKey, err := sv.toTdPubKey()
		if err != nil {
			return nil, err
		}
		out.ActiveSet = append(out.ActiveSet, tdKey)
	}

	for _, hexKey := range s.GenesisSet {
		raw, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("state: genesis_set entry: %w", err)
		}
		out.GenesisSet[string(raw)] = true
	}

	for _, hexKey := range s.SlashedEvidence {
		raw, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("state: slashed_evidence entry: %w", err)
		}
		out.SlashedEvidence[string(raw)] = true
	}

	for _, entry := range s.LivenessMisses {
		raw, err := hex.DecodeString(entry.TdPubKey)
		if err != nil {
			return nil, fmt.Errorf("state: liveness_misses entry: %w", err)
		}
		out.LivenessMisses[string(raw)] = entry.Misses
	}

	for _, module := range s.PausedModules {
		out.PausedModules[module] = true
	}

	return out, nil
}

func decodeAddr20(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 20 {
		return out, fmt.Errorf("bad 20-byte address %q", s)
	}
	copy(out[:], raw)
	return out, nil
}
