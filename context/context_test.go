package context

import (
	"testing"

	"github.com/latticeflow/latticeflow/ir"
)

func TestEmptyAlwaysEqual(t *testing.T) {
	t.Parallel()

	s := Empty{}
	a := s.EmptyContext()
	call := &ir.CallSite{Index: 7}
	b := s.SelectContextForStatic(a, call, nil)
	if !a.Equal(b) {
		t.Fatalf("expected all empty-policy contexts to be equal")
	}
}

func TestKCFATruncatesToK(t *testing.T) {
	t.Parallel()

	s := KCFA{K: 2}
	c := s.EmptyContext()
	c1 := s.SelectContextForStatic(c, &ir.CallSite{Index: 1}, nil)
	c2 := s.SelectContextForStatic(c1, &ir.CallSite{Index: 2}, nil)
	c3 := s.SelectContextForStatic(c2, &ir.CallSite{Index: 3}, nil)

	if c3.String() != "[2,3]" {
		t.Fatalf("expected call string truncated to last 2 ids, got %s", c3.String())
	}
}

func TestKCFAEqualContentsCompareEqual(t *testing.T) {
	t.Parallel()

	s := KCFA{K: 1}
	base := s.EmptyContext()
	a := s.SelectContextForStatic(base, &ir.CallSite{Index: 5}, nil)
	b := s.SelectContextForVirtual(base, &ir.CallSite{Index: 5}, nil, nil)

	if !a.Equal(b) {
		t.Fatalf("expected contexts built independently with the same call index to be equal")
	}
	if a != b {
		t.Fatalf("expected contexts to compare equal via plain == since they're used as map keys")
	}
}

func TestObjectSensitiveTracksReceiverChain(t *testing.T) {
	t.Parallel()

	s := ObjectSensitive{K: 1}
	base := s.EmptyContext()
	obj := ir.NewObj(nil, ir.Reference, nil, 3)
	c := s.SelectContextForVirtual(base, &ir.CallSite{Index: 0}, obj, nil)

	if c.String() != "[3]" {
		t.Fatalf("expected object-sensitive context to carry the receiver id, got %s", c.String())
	}

	staticCtx := s.SelectContextForStatic(c, &ir.CallSite{Index: 0}, nil)
	if !staticCtx.Equal(c) {
		t.Fatalf("expected a static call to inherit the caller's context unchanged")
	}
}
