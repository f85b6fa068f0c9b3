package coinbase

import (
	"encoding/binary"
	"encoding/json"

	"go.etcd.io/bbolt"

	"stakingcore/core/events"
)

var payoutBucket = []byte("payout_wal")

// WAL is a durable, append-only record of the payout lifecycle events the
// Coinbase Payer produces: settled, stalled, resumed. Enqueue events are not
// recorded.
// It is not the authoritative source of truth (core/state.Manager's
// content-addressed snapshot commit is), but it lets an operator replay or
// audit the drain order across a crash independently of snapshot history,
// and gives bbolt's single-writer transactions a home as the durability
// primitive for that audit trail (SPEC_FULL.md domain stack).
type WAL struct {
	db *bbolt.DB
}

// OpenWAL opens (creating if absent) the bbolt-backed payout WAL at path.
func OpenWAL(path string) (*WAL, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(payoutBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &WAL{db: db}, nil
}

// Close closes the underlying bbolt database.
func (w *WAL) Close() error { return w.db.Close() }

// record is the JSON shape written per WAL entry, keyed by the bucket's
// auto-incrementing sequence so iteration order matches write order.
type record struct {
	Kind   string `json:"kind"`
	Height uint64 `json:"height"`
	Detail any    `json:"detail"`
}

// Append writes one entry per payout-lifecycle event produced by Run.
// Events this WAL doesn't recognize are ignored. A nil WAL is a no-op, so
// callers that don't configure one (e.g. tests) don't need a guard.
func (w *WAL) Append(height uint64, evs []events.Event) error {
	if w == nil || len(evs) == 0 {
		return nil
	}
	return w.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(payoutBucket)
		for _, ev := range evs {
			rec, ok := toRecord(height, ev)
			if !ok {
				continue
			}
			payload, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(seqKey(seq), payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func toRecord(height uint64, ev events.Event) (record, bool) {
	switch e := ev.(type) {
	case events.PayoutSettled:
		return record{Kind: "settled", Height: height, Detail: e}, true
	case events.CoinbaseStalled:
		return record{Kind: "stalled", Height: height, Detail: e}, true
	case events.CoinbaseResumed:
		return record{Kind: "resumed", Height: height, Detail: e}, true
	default:
		return record{}, false
	}
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
