package state

import (
	"bytes"
	"encoding/binary"

	"lukechampine.com/blake3"
)

// CanonicalHash returns the content address of the snapshot (spec.md §6.4),
// computed over a canonical-sorted serialization so two nodes replaying the
// same block stream produce byte-identical hashes (spec.md §8 property
// "Determinism"). The wire encoding used here is internal to this function;
// it is not the persisted storage encoding.
func (s *Snapshot) CanonicalHash() [32]byte {
	buf := bytes.NewBuffer(nil)
	writeU64(buf, s.LastHeight)

	for _, key := range s.SortedValidatorKeys() {
		v := s.Validators[key]
		writeDelimited(buf, []byte(key))
		buf.Write(v.RewardsAddress[:])
		writeU32(buf, v.CommissionRateBps)
		writeDelimited(buf, []byte(v.Memo))
		writeAmount(buf, v.SelfBond)
		writeAmount(buf, v.AccumulatedRewards)
		writeAmount(buf, v.Dust)
		buf.WriteByte(byte(v.Sanction))
		writeU64(buf, v.JailedAtHeight)
		if v.Genesis {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}

	for _, key := range s.SortedDelegationKeys() {
		d := s.Delegations[key]
		writeDelimited(buf, []byte(key))
		writeAmount(buf, d.Principal)
		writeU64(buf, d.BondHeight)
		buf.WriteByte(byte(d.State))
		writeU64(buf, d.UnbondFinishHeight)
		writeAmount(buf, d.AccruedReward)
	}

	writeAmount(buf, s.Coinbase.Balance)
	if s.Coinbase.Stalled {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	writeU32(buf, uint32(len(s.PayoutQueue)))
	for _, p := range s.PayoutQueue {
		writeDelimited(buf, []byte(p.ID))
		buf.Write(p.TargetAddress[:])
		writeAmount(buf, p.Amount)
		buf.WriteByte(byte(p.Reason))
		writeU64(buf, p.CreatedHeight)
		writeU64(buf, p.Seq)
	}

	writeU32(buf, uint32(len(s.Scheduled)))
	for _, c := range s.Scheduled {
		buf.Write(c.Address[:])
		writeAmount(buf, c.Amount)
		writeU64(buf, c.ReleaseHeight)
		writeU64(buf, c.Seq)
	}

	writeAmount(buf, s.BurnedTotal)

	return blake3.Sum256(buf.Bytes())
}

func writeU64(buf *bytes.Buffer, v uint64) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeDelimited(buf *bytes.Buffer, data []byte) {
	writeU32(buf, uint32(len(data)))
	buf.Write(data)
}

func writeAmount(buf *bytes.Buffer, a amounter) {
	b := a.Bytes32()
	buf.Write(b[:])
}

// amounter is satisfied by types.Amount; declared locally to avoid an
// import cycle concern if core/types ever needs core/state.
type amounter interface {
	Bytes32() [32]byte
}
