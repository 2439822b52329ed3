package ir

// StmtKind tags the closed set of statement shapes the solver fabric
// exhaustively matches over: a tagged union standing in for a class
// hierarchy, so a switch over Kind can be exhaustive instead of a dynamic
// dispatch. Every Stmt implementation reports one of these.
type StmtKind int

const (
	KindAssign StmtKind = iota
	KindIf
	KindSwitch
	KindInvoke
	KindNew
	KindCopy
	KindLoadField
	KindStoreField
	KindLoadArray
	KindStoreArray
	KindReturn
	KindNop
)

// Stmt is the closed statement sum type fixes. getDef/getUses let
// generic dataflow analyses (live variables, in particular) work over any
// statement kind without a type switch; analyses that care about shape
// (constant propagation, pointer analysis) switch on the concrete
// statement type.
type Stmt interface {
	Kind() StmtKind
	Index() int
	GetDef() (LValue, bool)
	GetUses() []RValue
}

type base struct{ index int }

func (b base) Index() int { return b.index }

// AssignStmt is a scalar assignment lhs = rhs, where rhs is a Var,
// IntLiteral, BinaryExpr, or an InvokeExpr whose result lhs receives. This
// is the statement kind constant propagation's transfer function interprets.
type AssignStmt struct {
	base
	LHS *Var
	RHS RValue
}

func NewAssignStmt(index int, lhs *Var, rhs RValue) *AssignStmt {
	return &AssignStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *AssignStmt) Kind() StmtKind         { return KindAssign }
func (s *AssignStmt) GetDef() (LValue, bool) { return s.LHS, true }
func (s *AssignStmt) GetUses() []RValue {
	switch rhs := s.RHS.(type) {
	case *Var:
		return []RValue{rhs}
	case *BinaryExpr:
		return []RValue{rhs.X, rhs.Y}
	case *InvokeExpr:
		uses := make([]RValue, 0, len(rhs.Call.Args)+1)
		if rhs.Call.Recv != nil {
			uses = append(uses, rhs.Call.Recv)
		}
		for _, a := range rhs.Call.Args {
			uses = append(uses, a)
		}
		return uses
	default:
		return nil
	}
}

// IfStmt branches on a condition variable; its true/false successors are
// recorded as CFG edges, not on the statement itself.
type IfStmt struct {
	base
	Cond *Var
}

func NewIfStmt(index int, cond *Var) *IfStmt { return &IfStmt{base: base{index}, Cond: cond} }
func (s *IfStmt) Kind() StmtKind             { return KindIf }
func (s *IfStmt) GetDef() (LValue, bool)     { return nil, false }
func (s *IfStmt) GetUses() []RValue          { return []RValue{s.Cond} }

// SwitchStmt branches on an integer-holding variable; CFG edges carry the
// case values and the default target.
type SwitchStmt struct {
	base
	Var *Var
}

func NewSwitchStmt(index int, v *Var) *SwitchStmt { return &SwitchStmt{base: base{index}, Var: v} }
func (s *SwitchStmt) Kind() StmtKind              { return KindSwitch }
func (s *SwitchStmt) GetDef() (LValue, bool)      { return nil, false }
func (s *SwitchStmt) GetUses() []RValue           { return []RValue{s.Var} }

// InvokeStmt is a call statement. LHS is nil when the result is discarded.
type InvokeStmt struct {
	base
	Call *CallSite
	LHS  *Var
}

func NewInvokeStmt(index int, call *CallSite, lhs *Var) *InvokeStmt {
	return &InvokeStmt{base: base{index}, Call: call, LHS: lhs}
}
func (s *InvokeStmt) Kind() StmtKind { return KindInvoke }
func (s *InvokeStmt) GetDef() (LValue, bool) {
	if s.LHS == nil {
		return nil, false
	}
	return s.LHS, true
}
func (s *InvokeStmt) GetUses() []RValue {
	uses := make([]RValue, 0, len(s.Call.Args)+1)
	if s.Call.Recv != nil {
		uses = append(uses, s.Call.Recv)
	}
	for _, a := range s.Call.Args {
		uses = append(uses, a)
	}
	return uses
}

// NewStmt allocates a fresh heap object: lhs = new T().
type NewStmt struct {
	base
	LHS  *Var
	Expr *NewExpr
}

func NewNewStmt(index int, lhs *Var, expr *NewExpr) *NewStmt {
	return &NewStmt{base: base{index}, LHS: lhs, Expr: expr}
}
func (s *NewStmt) Kind() StmtKind         { return KindNew }
func (s *NewStmt) GetDef() (LValue, bool) { return s.LHS, true }
func (s *NewStmt) GetUses() []RValue      { return nil }

// CopyStmt is lhs = rhs for any type (reference copies drive PFG edges;
// int copies participate in constant propagation like any Assign).
type CopyStmt struct {
	base
	LHS, RHS *Var
}

func NewCopyStmt(index int, lhs, rhs *Var) *CopyStmt {
	return &CopyStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *CopyStmt) Kind() StmtKind         { return KindCopy }
func (s *CopyStmt) GetDef() (LValue, bool) { return s.LHS, true }
func (s *CopyStmt) GetUses() []RValue      { return []RValue{s.RHS} }

// LoadFieldStmt is lhs = C.f (static) or lhs = base.f (instance), per which
// concrete RHS type is set.
type LoadFieldStmt struct {
	base
	LHS *Var
	RHS LValue // *StaticFieldRef or *InstanceFieldRef
}

func NewLoadFieldStmt(index int, lhs *Var, rhs LValue) *LoadFieldStmt {
	return &LoadFieldStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *LoadFieldStmt) Kind() StmtKind         { return KindLoadField }
func (s *LoadFieldStmt) GetDef() (LValue, bool) { return s.LHS, true }
func (s *LoadFieldStmt) GetUses() []RValue {
	if ifr, ok := s.RHS.(*InstanceFieldRef); ok {
		return []RValue{ifr.Base}
	}
	return nil
}

// IsStatic reports whether this load targets a static field.
func (s *LoadFieldStmt) IsStatic() bool {
	_, ok := s.RHS.(*StaticFieldRef)
	return ok
}

// StoreFieldStmt is C.f = rhs (static) or base.f = rhs (instance).
type StoreFieldStmt struct {
	base
	LHS LValue // *StaticFieldRef or *InstanceFieldRef
	RHS *Var
}

func NewStoreFieldStmt(index int, lhs LValue, rhs *Var) *StoreFieldStmt {
	return &StoreFieldStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *StoreFieldStmt) Kind() StmtKind         { return KindStoreField }
func (s *StoreFieldStmt) GetDef() (LValue, bool) { return nil, false }
func (s *StoreFieldStmt) GetUses() []RValue {
	if ifr, ok := s.LHS.(*InstanceFieldRef); ok {
		return []RValue{ifr.Base, s.RHS}
	}
	return []RValue{s.RHS}
}
func (s *StoreFieldStmt) IsStatic() bool {
	_, ok := s.LHS.(*StaticFieldRef)
	return ok
}

// LoadArrayStmt is lhs = base[i].
type LoadArrayStmt struct {
	base
	LHS *Var
	RHS *ArrayAccess
}

func NewLoadArrayStmt(index int, lhs *Var, rhs *ArrayAccess) *LoadArrayStmt {
	return &LoadArrayStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *LoadArrayStmt) Kind() StmtKind         { return KindLoadArray }
func (s *LoadArrayStmt) GetDef() (LValue, bool) { return s.LHS, true }
func (s *LoadArrayStmt) GetUses() []RValue      { return []RValue{s.RHS.Base, s.RHS.Index} }

// StoreArrayStmt is base[i] = rhs.
type StoreArrayStmt struct {
	base
	LHS *ArrayAccess
	RHS *Var
}

func NewStoreArrayStmt(index int, lhs *ArrayAccess, rhs *Var) *StoreArrayStmt {
	return &StoreArrayStmt{base: base{index}, LHS: lhs, RHS: rhs}
}
func (s *StoreArrayStmt) Kind() StmtKind         { return KindStoreArray }
func (s *StoreArrayStmt) GetDef() (LValue, bool) { return nil, false }
func (s *StoreArrayStmt) GetUses() []RValue      { return []RValue{s.LHS.Base, s.LHS.Index, s.RHS} }

// ReturnStmt returns Var (nil for a void return).
type ReturnStmt struct {
	base
	Var *Var
}

func NewReturnStmt(index int, v *Var) *ReturnStmt { return &ReturnStmt{base: base{index}, Var: v} }
func (s *ReturnStmt) Kind() StmtKind              { return KindReturn }
func (s *ReturnStmt) GetDef() (LValue, bool)      { return nil, false }
func (s *ReturnStmt) GetUses() []RValue {
	if s.Var == nil {
		return nil
	}
	return []RValue{s.Var}
}

// NopStmt is a control-only placeholder (e.g. a synthetic join point) with
// no def/use.
type NopStmt struct{ base }

func NewNopStmt(index int) *NopStmt      { return &NopStmt{base{index}} }
func (s *NopStmt) Kind() StmtKind         { return KindNop }
func (s *NopStmt) GetDef() (LValue, bool) { return nil, false }
func (s *NopStmt) GetUses() []RValue      { return nil }
