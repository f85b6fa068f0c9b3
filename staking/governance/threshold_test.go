package governance

import (
	"crypto/rand"
	"testing"

	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/crypto"
	"stakingcore/staking/params"
)

func testEconomicConfig(t *testing.T) params.EconomicConfig {
	t.Helper()
	cfg := params.EconomicConfig{
		NActive:          10,
		MinStake:         "1",
		UnbondBlocks:     1,
		SigThresholdBps:  6700,
		ProposerBonusBps: 0,
		LivenessWindow:   100,
		RewardSchedule:   []params.RewardStep{{FromHeight: 0, Reward: "1"}},
		FaultTable: map[string]params.FaultPenalty{
			types.FaultDoubleSign.String():        {PrincipalSlashBps: 10000, Tombstone: true},
			types.FaultLightClientAttack.String(): {PrincipalSlashBps: 10000, Tombstone: true},
			types.FaultLiveness.String():          {PrincipalSlashBps: 0, JailBlocks: 10},
		},
	}
	if err := params.Validate(&cfg); err != nil {
		t.Fatalf("validate test economic config: %v", err)
	}
	return cfg
}

// testValidator seeds snap with one genesis-eligible validator signing with
// a freshly generated key, returning the key and its TdPubKey.
func testValidator(t *testing.T, snap *state.Snapshot, power uint64) (*crypto.PrivateKey, types.TdPubKey) {
	t.Helper()
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	priv, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("derive private key: %v", err)
	}
	rewardsAddr := priv.PubKey().Address()
	var addr20 [20]byte
	copy(addr20[:], rewardsAddr.Bytes())

	full := make([]byte, 33)
	full[0] = byte(len(snap.Validators) + 1) // vary the derived TdPubKey per validator
	tdKey := types.TdPubKeyFromFull(full)

	v := &types.Validator{
		TdPubKey:       tdKey,
		RewardsAddress: addr20,
		SelfBond:       types.NewAmount(power),
		Genesis:        true,
	}
	snap.Validators[tdKey.Key()] = v
	snap.ActiveSet = append(snap.ActiveSet, tdKey)
	snap.GenesisSet[tdKey.Key()] = true
	return priv, tdKey
}

func sign(t *testing.T, priv *crypto.PrivateKey, digest [32]byte) []byte {
	t.Helper()
	sig, err := priv.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return sig
}

func TestMeetsThresholdAcceptsEmptySignersOnlyAtGenesis(t *testing.T) {
	econ := testEconomicConfig(t)
	snap := state.New()

	if _, err := MeetsThreshold(snap, econ, [32]byte{}, nil); err != nil {
		t.Fatalf("expected empty signer set accepted pre-genesis, got %v", err)
	}

	testValidator(t, snap, 100)
	if _, err := MeetsThreshold(snap, econ, [32]byte{}, nil); err == nil {
		t.Fatalf("expected empty signer set rejected once an active set exists")
	}
}

func TestMeetsThresholdWeighsBySignerVotingPower(t *testing.T) {
	econ := testEconomicConfig(t) // SigThresholdBps: 6700
	snap := state.New()
	digest := [32]byte{0xAB}

	privA, keyA := testValidator(t, snap, 70)
	testValidator(t, snap, 30)

	signers := []types.Signer{{TdPubKey: keyA, Signature: sign(t, privA, digest)}}
	weight, err := MeetsThreshold(snap, econ, digest, signers)
	if err != nil {
		t.Fatalf("expected 70%% voting power to clear a 67%% threshold, got %v", err)
	}
	if weight != 7000 {
		t.Fatalf("expected 7000bps (70%%), got %d", weight)
	}
}

func TestMeetsThresholdFailsBelowThreshold(t *testing.T) {
	econ := testEconomicConfig(t) // SigThresholdBps: 6700
	snap := state.New()
	digest := [32]byte{0xCD}

	testValidator(t, snap, 70)
	privB, keyB := testValidator(t, snap, 30)

	signers := []types.Signer{{TdPubKey: keyB, Signature: sign(t, privB, digest)}}
	if _, err := MeetsThreshold(snap, econ, digest, signers); err == nil {
		t.Fatalf("expected 30%% voting power to fall short of a 67%% threshold")
	}
}

func TestMeetsThresholdRejectsForgedSignature(t *testing.T) {
	econ := testEconomicConfig(t)
	snap := state.New()
	digest := [32]byte{0x01}

	_, keyA := testValidator(t, snap, 100)
	forged := make([]byte, 65)

	_, err := MeetsThreshold(snap, econ, digest, []types.Signer{{TdPubKey: keyA, Signature: forged}})
	if err == nil {
		t.Fatalf("expected a forged signature to contribute no weight and fail the threshold")
	}
}

func TestMeetsThresholdRejectsDuplicateSigner(t *testing.T) {
	econ := testEconomicConfig(t)
	snap := state.New()
	digest := [32]byte{0x02}

	privA, keyA := testValidator(t, snap, 100)
	sig := sign(t, privA, digest)

	_, err := MeetsThreshold(snap, econ, digest, []types.Signer{
		{TdPubKey: keyA, Signature: sig},
		{TdPubKey: keyA, Signature: sig},
	})
	if err == nil {
		t.Fatalf("expected a duplicate signer entry to be rejected")
	}
}

func TestMeetsThresholdSucceedsAboveThreshold(t *testing.T) {
	econ := testEconomicConfig(t)
	snap := state.New()
	digest := [32]byte{0x03}

	privA, keyA := testValidator(t, snap, 70)
	privB, keyB := testValidator(t, snap, 30)

	signers := []types.Signer{
		{TdPubKey: keyA, Signature: sign(t, privA, digest)},
		{TdPubKey: keyB, Signature: sign(t, privB, digest)},
	}
	weight, err := MeetsThreshold(snap, econ, digest, signers)
	if err != nil {
		t.Fatalf("expected full-weight signer set to clear the threshold, got %v", err)
	}
	if weight != 10000 {
		t.Fatalf("expected 10000bps (100%%) weight, got %d", weight)
	}
}
