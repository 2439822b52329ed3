package constprop

import (
	"math"
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestEvaluateWraparound(t *testing.T) {
	t.Parallel()

	got, isUndef := evaluate(ir.ADD, math.MaxInt32, 1)
	if isUndef {
		t.Fatalf("ADD should never be UNDEF")
	}
	if got != math.MinInt32 {
		t.Fatalf("expected ADD to wrap to MinInt32, got %d", got)
	}

	got, _ = evaluate(ir.MUL, 1<<30, 4)
	if got != 0 {
		t.Fatalf("expected MUL to wrap mod 2^32, got %d", got)
	}
}

func TestEvaluateDivRemByZero(t *testing.T) {
	t.Parallel()

	if _, isUndef := evaluate(ir.DIV, 10, 0); !isUndef {
		t.Fatalf("expected DIV by zero to be UNDEF")
	}
	if _, isUndef := evaluate(ir.REM, 10, 0); !isUndef {
		t.Fatalf("expected REM by zero to be UNDEF")
	}
	if got, isUndef := evaluate(ir.DIV, 10, 3); isUndef || got != 3 {
		t.Fatalf("unexpected DIV result: %d, %v", got, isUndef)
	}
}

func TestEvaluateShiftMasking(t *testing.T) {
	t.Parallel()

	// Shift amounts are masked to the low 5 bits, so 33 behaves like 1.
	got, _ := evaluate(ir.SHL, 1, 33)
	if got != 2 {
		t.Fatalf("expected SHL by 33 to mask to 1, got %d", got)
	}

	got, _ = evaluate(ir.SHR, -8, 1)
	if got != -4 {
		t.Fatalf("expected arithmetic SHR to sign-extend, got %d", got)
	}

	got, _ = evaluate(ir.USHR, -8, 1)
	if got != 0x7FFFFFFC {
		t.Fatalf("expected logical USHR to zero-extend, got %d", got)
	}
}

func TestEvaluateComparisons(t *testing.T) {
	t.Parallel()

	cases := []struct {
		op       ir.Op
		x, y     int32
		expected int32
	}{
		{ir.EQ, 3, 3, 1},
		{ir.EQ, 3, 4, 0},
		{ir.NE, 3, 4, 1},
		{ir.LT, 3, 4, 1},
		{ir.LE, 4, 4, 1},
		{ir.GT, 4, 3, 1},
		{ir.GE, 4, 4, 1},
	}
	for _, c := range cases {
		got, isUndef := evaluate(c.op, c.x, c.y)
		if isUndef {
			t.Fatalf("comparison should never be UNDEF")
		}
		if got != c.expected {
			t.Fatalf("%v(%d,%d): got %d want %d", c.op, c.x, c.y, got, c.expected)
		}
	}
}
