package types

import "testing"

func TestAmountAddSub(t *testing.T) {
	a := NewAmount(100)
	b := NewAmount(40)

	sum := a.Add(b)
	if sum.Uint64() != 140 {
		t.Fatalf("expected 140, got %s", sum.String())
	}

	diff, ok := a.Sub(b)
	if !ok || diff.Uint64() != 60 {
		t.Fatalf("expected 60, got %s (ok=%v)", diff.String(), ok)
	}

	if _, ok := b.Sub(a); ok {
		t.Fatalf("expected Sub to report !ok when subtrahend exceeds minuend")
	}
}

func TestAmountAddOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Add to panic on overflow")
		}
	}()
	max, err := AmountFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	if err != nil {
		t.Fatalf("parse max uint256: %v", err)
	}
	max.Add(NewAmount(1))
}

func TestAmountMulFracFloors(t *testing.T) {
	a := NewAmount(10)
	// 10 * 1/3 floors to 3, not 3.333...
	got := a.MulFrac(1, 3)
	if got.Uint64() != 3 {
		t.Fatalf("expected floor(10/3)=3, got %s", got.String())
	}
}

func TestAmountMulFracZeroDenominatorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected MulFrac to panic on zero denominator")
		}
	}()
	NewAmount(1).MulFrac(1, 0)
}

func TestAmountUint64SaturatesInsteadOfPanicking(t *testing.T) {
	huge, err := AmountFromString("340282366920938463463374607431768211456") // 2^128
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := huge.Uint64(); got != ^uint64(0) {
		t.Fatalf("expected saturated max uint64, got %d", got)
	}
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := NewAmount(12345)
	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"12345"` {
		t.Fatalf("expected quoted decimal string, got %s", data)
	}

	var out Amount
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Cmp(a) != 0 {
		t.Fatalf("round trip mismatch: got %s want %s", out.String(), a.String())
	}
}

func TestAmountCmpAndLessThan(t *testing.T) {
	small := NewAmount(1)
	large := NewAmount(2)
	if !small.LessThan(large) {
		t.Fatalf("expected 1 < 2")
	}
	if small.Cmp(large) != -1 {
		t.Fatalf("expected Cmp(1,2) == -1")
	}
	if ZeroAmount().Sign() != 0 {
		t.Fatalf("expected zero amount to have sign 0")
	}
	if NewAmount(1).Sign() != 1 {
		t.Fatalf("expected nonzero amount to have sign 1")
	}
}
