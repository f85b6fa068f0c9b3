// Package governance implements the four weighted multi-sig gated
// operations (ValidatorUpdate, Governance, FraDistribution, ModulePause) and the
// evidence-driven auto-slash fault table (spec.md §4.F).
package governance

import (
	"stakingcore/core/errors"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/crypto"
	"stakingcore/staking/params"
	"stakingcore/staking/registry"
)

// WeighSigners sums the voting power of a gated operation's signer set
// against the current active set, rejecting duplicate signers, giving
// non-active signers no weight, and verifying each signature recovers to the signing validator's
// rewards address over digest (the operation's own canonical hash,
// excluding the signer set itself). It returns the cumulative weight in bps
// of total active voting power, evaluated against the active set *at time
// of application* (spec.md §9 "prevents replay across validator-set
// changes").
func WeighSigners(snap *state.Snapshot, econ params.EconomicConfig, digest [32]byte, signers []types.Signer) (uint32, *errors.StakingError) {
	activeSet := registry.ActiveSet(snap, econ)
	total := types.ZeroAmount()
	for _, key := range activeSet {
		if v, ok := snap.Validators[key.Key()]; ok {
			total = total.Add(registry.VotingPower(snap, v, econ))
		}
	}
	if total.IsZero() {
		return 0, errors.InvalidOp(errors.ErrInsufficientWeight)
	}

	seen := make(map[string]bool, len(signers))
	summed := types.ZeroAmount()
	for _, s := range signers {
		if seen[s.TdPubKey.Key()] {
			return 0, errors.InvalidOp(errors.ErrInvariantViolation)
		}
		seen[s.TdPubKey.Key()] = true
		if !inSet(activeSet, s.TdPubKey) {
			continue // non-active signers contribute no weight
		}
		v, ok := snap.Validators[s.TdPubKey.Key()]
		if !ok {
			continue
		}
		if !verifySignature(v.RewardsAddress, digest, s.Signature) {
			continue // forged or mismatched signature contributes no weight
		}
		summed = summed.Add(registry.VotingPower(snap, v, econ))
	}

	weightBps := summed.MulFrac(10000, total.Uint64())
	return uint32(weightBps.Uint64()), nil
}

// MeetsThreshold reports whether weightBps clears SIG_THRESHOLD. An empty
// signer set is accepted only at genesis, i.e. when the registry has no
// active set yet (spec.md §4.F).
func MeetsThreshold(snap *state.Snapshot, econ params.EconomicConfig, digest [32]byte, signers []types.Signer) (uint32, *errors.StakingError) {
	if len(signers) == 0 {
		if len(registry.ActiveSet(snap, econ)) == 0 {
			return 0, nil
		}
		return 0, errors.InvalidOp(errors.ErrInsufficientWeight)
	}
	weightBps, err := WeighSigners(snap, econ, digest, signers)
	if err != nil {
		return 0, err
	}
	if weightBps < econ.SigThresholdBps {
		return weightBps, errors.InvalidOp(errors.ErrInsufficientWeight)
	}
	return weightBps, nil
}

// verifySignature recovers the secp256k1 signer address from (digest, sig)
// and reports whether it matches rewardsAddress, the account key a
// validator is expected to sign gated operations with.
func verifySignature(rewardsAddress [20]byte, digest [32]byte, sig []byte) bool {
	recovered, err := crypto.RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	return bytesEqual20(recovered.Bytes(), rewardsAddress)
}

func bytesEqual20(recovered []byte, expected [20]byte) bool {
	if len(recovered) != 20 {
		return false
	}
	for i := range expected {
		if recovered[i] != expected[i] {
			return false
		}
	}
	return true
}

func inSet(set []types.TdPubKey, key types.TdPubKey) bool {
	for _, k := range set {
		if k.Key() == key.Key() {
			return true
		}
	}
	return false
}
