package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetLattice(t *testing.T) {
	t.Parallel()

	assert.True(t, Meet(Undef(), Const(3)).Equal(Const(3)))
	assert.True(t, Meet(Const(3), Undef()).Equal(Const(3)))
	assert.True(t, Meet(Const(3), Const(3)).Equal(Const(3)))
	assert.True(t, Meet(Const(3), Const(4)).Equal(NAC()))
	assert.True(t, Meet(NAC(), Const(4)).Equal(NAC()))
	assert.True(t, Meet(Undef(), Undef()).Equal(Undef()))
	assert.True(t, Meet(NAC(), NAC()).Equal(NAC()))
}

func TestMeetCommutativeAndAssociative(t *testing.T) {
	t.Parallel()

	vals := []Value{Undef(), NAC(), Const(1), Const(2), Const(3)}
	for _, a := range vals {
		for _, b := range vals {
			assert.Truef(t, Meet(a, b).Equal(Meet(b, a)), "meet(%v,%v) != meet(%v,%v)", a, b, b, a)
			for _, c := range vals {
				left := Meet(a, Meet(b, c))
				right := Meet(Meet(a, b), c)
				assert.Truef(t, left.Equal(right), "meet not associative for %v,%v,%v", a, b, c)
			}
		}
	}
}
