// Package state holds the staking core's single in-memory Snapshot and its
// content-addressed persistence, generalizing the teacher's
// core/state/manager.go KV-prefix idiom to a whole-snapshot model: spec.md
// §5 requires the entire registry/ledger/coinbase/queue to be mutated only
// between begin_block and end_block and served to readers as one immutable
// snapshot taken at commit.
package state

import (
	"sort"

	"stakingcore/core/types"
)

// Snapshot is the entire persisted state of the staking core (spec.md
// §6.4). It is exclusively owned by the block driver between begin_block
// and end_block; everything else reads a cloned copy.
type Snapshot struct {
	Validators   map[string]*types.Validator  // keyed by TdPubKey.Key()
	Delegations  map[string]*types.Delegation // keyed by DelegationKey.Key()
	Coinbase     types.Coinbase
	PayoutQueue  []types.PayoutIntent        // FIFO, ordered by Seq
	Scheduled    []types.ScheduledFraCredit  // ordered by Seq
	Records      []types.GovernanceRecord
	ActiveSet    []types.TdPubKey // the set last published to the consensus driver
	GenesisSet   map[string]bool  // TdPubKey.Key() -> true, permanent carve-out (spec.md §4.B eligibility leg)
	// SlashedEvidence tracks evidence already applied, keyed by a digest of
	// (offender, fault, height, ref), so a replayed BeginBlockInput never
	// double-slashes the same fault (spec.md §4.F).
	SlashedEvidence map[string]bool
	// LivenessMisses counts consecutive blocks, keyed by TdPubKey.Key(), in
	// which an active-set validator was absent from last_commit_signers,
	// reset to 0 on any signed block (spec.md §4.G step 1 "record presence
	// for liveness").
	LivenessMisses map[string]uint64
	// PausedModules holds the set of staking sub-operations (keyed by module
	// name: "delegate", "undelegate", "claim", "governance") currently
	// paused by a ModulePause op (spec.md §4.F names no pause mechanism
	// directly, but "module pause" is a standard governance lever across
	// the rest of the pack).
	PausedModules    map[string]bool
	NextPayoutSeq    uint64
	NextScheduledSeq uint64
	// NextRecordSeq is the monotonic counter GovernanceRecord.ID is derived
	// from (spec.md §5 determinism), mirroring NextPayoutSeq.
	NextRecordSeq uint64
	BurnedTotal   types.Amount
	LastHeight    uint64
}

// New returns an empty Snapshot ready for genesis population.
func New() *Snapshot {
	return &Snapshot{
		Validators:      make(map[string]*types.Validator),
		Delegations:     make(map[string]*types.Delegation),
		Coinbase:        types.Coinbase{Balance: types.ZeroAmount()},
		GenesisSet:      make(map[string]bool),
		SlashedEvidence: make(map[string]bool),
		LivenessMisses:  make(map[string]uint64),
		PausedModules:   make(map[string]bool),
		BurnedTotal:     types.ZeroAmount(),
	}
}

// Clone deep-copies the snapshot so a reader never observes a mutation made
// mid-block (spec.md §5 "served from an immutable snapshot").
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Validators:       make(map[string]*types.Validator, len(s.Validators)),
		Delegations:      make(map[string]*types.Delegation, len(s.Delegations)),
		Coinbase:         s.Coinbase.Clone(),
		PayoutQueue:      make([]types.PayoutIntent, len(s.PayoutQueue)),
		Scheduled:        make([]types.ScheduledFraCredit, len(s.Scheduled)),
		Records:          make([]types.GovernanceRecord, len(s.Records)),
		ActiveSet:        append([]types.TdPubKey(nil), s.ActiveSet...),
		GenesisSet:       make(map[string]bool, len(s.GenesisSet)),
		SlashedEvidence:  make(map[string]bool, len(s.SlashedEvidence)),
		LivenessMisses:   make(map[string]uint64, len(s.LivenessMisses)),
		PausedModules:    make(map[string]bool, len(s.PausedModules)),
		NextPayoutSeq:    s.NextPayoutSeq,
		NextScheduledSeq: s.NextScheduledSeq,
		NextRecordSeq:    s.NextRecordSeq,
		BurnedTotal:      s.BurnedTotal,
		LastHeight:       s.LastHeight,
	}
	for k, v := range s.Validators {
		clone := v.Clone()
		out.Validators[k] = &clone
	}
	for k, v := range s.Delegations {
		clone := v.Clone()
		out.Delegations[k] = &clone
	}
	for i, p := range s.PayoutQueue {
		out.PayoutQueue[i] = p.Clone()
	}
	for i, c := range s.Scheduled {
		out.Scheduled[i] = c.Clone()
	}
	copy(out.Records, s.Records)
	for k, v := range s.GenesisSet {
		out.GenesisSet[k] = v
	}
	for k, v := range s.SlashedEvidence {
		out.SlashedEvidence[k] = v
	}
	for k, v := range s.LivenessMisses {
		out.LivenessMisses[k] = v
	}
	for k, v := range s.PausedModules {
		out.PausedModules[k] = v
	}
	return out
}

// SortedValidatorKeys returns validator map keys in canonical (lexicographic
// td_pubkey) order, required by spec.md §4.D's "no map-iteration order may
// leak into amounts" determinism rule.
func (s *Snapshot) SortedValidatorKeys() []string {
	keys := make([]string, 0, len(s.Validators))
	for k := range s.Validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortedDelegationKeys returns delegation map keys in canonical
// (delegator, td_pubkey) order.
func (s *Snapshot) SortedDelegationKeys() []string {
	keys := make([]string, 0, len(s.Delegations))
	for k := range s.Delegations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DelegationsByValidator returns every delegation bonded or unbonding to v,
// in canonical delegator order.
func (s *Snapshot) DelegationsByValidator(v types.TdPubKey) []*types.Delegation {
	var out []*types.Delegation
	for _, k := range s.SortedDelegationKeys() {
		d := s.Delegations[k]
		if d.Validator.Key() == v.Key() {
			out = append(out, d)
		}
	}
	return out
}
