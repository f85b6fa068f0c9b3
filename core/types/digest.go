package types

import (
	"bytes"
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Operation digests are the payload a gated op's signers sign over,
// deliberately excluding the Signers field itself so a signature can't sign
// its own container.

func ValidatorUpdateDigest(op ValidatorUpdateOp) [32]byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("validator_update")
	for _, e := range op.Diff {
		buf.Write(e.TdPubKey.Digest[:])
		if e.Remove {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
		buf.Write(e.RewardsAddress[:])
		_ = binary.Write(buf, binary.BigEndian, e.CommissionBps)
		buf.WriteString(e.Memo)
	}
	return blake3.Sum256(buf.Bytes())
}

func GovernanceDigest(op GovernanceOp) [32]byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("governance")
	buf.Write(op.Target.Digest[:])
	buf.WriteByte(byte(op.FaultKind))
	_ = binary.Write(buf, binary.BigEndian, op.Height)
	buf.Write(op.EvidenceRef)
	return blake3.Sum256(buf.Bytes())
}

func FraDistributionDigest(op FraDistributionOp) [32]byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("fra_distribution")
	for _, e := range op.Entries {
		buf.Write(e.Address[:])
		amt := e.Amount.Bytes32()
		buf.Write(amt[:])
		_ = binary.Write(buf, binary.BigEndian, e.ReleaseHeight)
	}
	return blake3.Sum256(buf.Bytes())
}

func ModulePauseDigest(op ModulePauseOp) [32]byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("module_pause")
	buf.WriteString(op.Module)
	if op.Paused {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return blake3.Sum256(buf.Bytes())
}
