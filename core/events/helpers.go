package events

import (
	"fmt"

	"stakingcore/core/types"
	"stakingcore/crypto"
)

func addr(b [20]byte) string {
	return crypto.MustNewAddress(crypto.FraPrefix, b[:]).String()
}

func valAddr(key types.TdPubKey) string {
	return crypto.MustNewAddress(crypto.ValPrefix, key.Digest[:]).String()
}

func zeroAddress(b [20]byte) bool {
	var zero [20]byte
	return b == zero
}

func formatBps(bps uint32) string {
	whole := bps / 100
	frac := bps % 100
	return fmt.Sprintf("%d.%02d", whole, frac)
}

func u64(v uint64) string { return fmt.Sprintf("%d", v) }
