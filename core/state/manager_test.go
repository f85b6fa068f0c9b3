package state

import (
	"testing"

	"stakingcore/core/types"
	"stakingcore/storage"
)

func seedValidator(snap *Snapshot, seed byte, power uint64) types.TdPubKey {
	full := []byte{seed}
	key := types.TdPubKeyFromFull(full)
	snap.Validators[key.Key()] = &types.Validator{
		TdPubKey: key,
		SelfBond: types.NewAmount(power),
		Genesis:  true,
	}
	return key
}

func TestCanonicalHashIsDeterministicAcrossEquivalentSnapshots(t *testing.T) {
	a := New()
	seedValidator(a, 1, 100)
	b := New()
	seedValidator(b, 1, 100)

	if a.CanonicalHash() != b.CanonicalHash() {
		t.Fatalf("expected two structurally identical snapshots to hash identically")
	}
}

func TestCanonicalHashChangesWithState(t *testing.T) {
	a := New()
	seedValidator(a, 1, 100)
	b := New()
	seedValidator(b, 1, 200)

	if a.CanonicalHash() == b.CanonicalHash() {
		t.Fatalf("expected differing validator power to change the canonical hash")
	}
}

func TestManagerCommitAndReloadRoundTrips(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)

	genesis := New()
	seedValidator(genesis, 7, 55)
	if err := manager.LoadOrInit(genesis); err != nil {
		t.Fatalf("load or init: %v", err)
	}

	hash, err := manager.Commit(1)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded := NewManager(db)
	if err := reloaded.LoadOrInit(New()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Current().CanonicalHash(); got != hash {
		t.Fatalf("expected reloaded snapshot to hash identically to the committed one")
	}
	if reloaded.Current().LastHeight != 1 {
		t.Fatalf("expected reloaded snapshot to carry the committed height")
	}
}

func TestLoadOrInitFallsBackToGenesisWhenNoneStored(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	genesis := New()
	seedValidator(genesis, 9, 1)

	if err := manager.LoadOrInit(genesis); err != nil {
		t.Fatalf("load or init: %v", err)
	}
	if len(manager.Current().Validators) != 1 {
		t.Fatalf("expected genesis snapshot to be installed when the db is empty")
	}
}

func TestQueryReturnsAnIndependentClone(t *testing.T) {
	db := storage.NewMemDB()
	manager := NewManager(db)
	genesis := New()
	seedValidator(genesis, 3, 10)
	if err := manager.LoadOrInit(genesis); err != nil {
		t.Fatalf("load or init: %v", err)
	}

	clone := manager.Query()
	clone.LastHeight = 999

	if manager.Current().LastHeight == 999 {
		t.Fatalf("expected Query's clone to be independent of the live snapshot")
	}
}
