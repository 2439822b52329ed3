package constprop

import "github.com/latticeflow/latticeflow/ir"

// evaluate applies a binary operator to two known 32-bit constants with
// exact wraparound/exception semantics. Go's own int32 arithmetic already
// wraps modulo 2^32 on ADD/SUB/MUL, so most cases need no masking; DIV/REM
// by zero have no well-defined machine result and collapse to UNDEF rather
// than NAC.
func evaluate(op ir.Op, x, y int32) (result int32, isUndef bool) {
	switch op {
	case ir.ADD:
		return x + y, false
	case ir.SUB:
		return x - y, false
	case ir.MUL:
		return x * y, false
	case ir.DIV:
		if y == 0 {
			return 0, true
		}
		return x / y, false
	case ir.REM:
		if y == 0 {
			return 0, true
		}
		return x % y, false
	case ir.SHL:
		return x << (uint32(y) & 31), false
	case ir.SHR:
		return x >> (uint32(y) & 31), false
	case ir.USHR:
		return int32(uint32(x) >> (uint32(y) & 31)), false
	case ir.AND:
		return x & y, false
	case ir.OR:
		return x | y, false
	case ir.XOR:
		return x ^ y, false
	case ir.EQ:
		return boolInt(x == y), false
	case ir.NE:
		return boolInt(x != y), false
	case ir.LT:
		return boolInt(x < y), false
	case ir.LE:
		return boolInt(x <= y), false
	case ir.GT:
		return boolInt(x > y), false
	case ir.GE:
		return boolInt(x >= y), false
	default:
		return 0, true
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
