// Package genesis loads the initial validator set published to the
// consensus driver's InitChain call (spec.md §6.1).
package genesis

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"stakingcore/core/state"
	"stakingcore/core/types"
)

// Entry is one row of the genesis validator list file:
// `[ {td_pubkey, power, rewards_address}... ]` (spec.md §6.1).
type Entry struct {
	TdPubKey       string `json:"td_pubkey"` // hex-encoded full consensus public key
	Power          string `json:"power"`     // decimal FRA-unit self-bond
	RewardsAddress string `json:"rewards_address"`
}

// Load parses a genesis file into a list of entries.
func Load(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("genesis: file %s has no validators", path)
	}
	return entries, nil
}

// BuildSnapshot constructs the initial Snapshot from the genesis entries,
// registering each as a permanent genesis_set member (spec.md §4.B
// eligibility leg, §9 "permanent carve-out").
func BuildSnapshot(entries []Entry) (*state.Snapshot, error) {
	snap := state.New()
	for _, e := range entries {
		fullKey, err := hex.DecodeString(e.TdPubKey)
		if err != nil {
			return nil, fmt.Errorf("genesis: bad td_pubkey %q: %w", e.TdPubKey, err)
		}
		tdKey := types.TdPubKeyFromFull(fullKey)
		power, err := types.AmountFromString(e.Power)
		if err != nil {
			return nil, fmt.Errorf("genesis: bad power %q: %w", e.Power, err)
		}
		rewardsRaw, err := hex.DecodeString(e.RewardsAddress)
		if err != nil || len(rewardsRaw) != 20 {
			return nil, fmt.Errorf("genesis: bad rewards_address %q", e.RewardsAddress)
		}
		var rewardsAddr [20]byte
		copy(rewardsAddr[:], rewardsRaw)

		v := &types.Validator{
			TdPubKey:           tdKey,
			RewardsAddress:     rewardsAddr,
			CommissionRateBps:  0,
			SelfBond:           power,
			AccumulatedRewards: types.ZeroAmount(),
			Sanction:           types.SanctionNone,
			Genesis:            true,
			Dust:               types.ZeroAmount(),
		}
		snap.Validators[tdKey.Key()] = v
		snap.GenesisSet[tdKey.Key()] = true
		snap.ActiveSet = append(snap.ActiveSet, tdKey)

		selfDelegation := &types.Delegation{
			Delegator:     rewardsAddr,
			Validator:     tdKey,
			Principal:     power,
			BondHeight:    0,
			State:         types.DelegationBonded,
			AccruedReward: types.ZeroAmount(),
		}
		key := types.DelegationKey{Delegator: rewardsAddr, Validator: tdKey}
		snap.Delegations[key.Key()] = selfDelegation
	}
	return snap, nil
}
