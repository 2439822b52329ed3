package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/latticeflow/latticeflow/classhierarchy"
	"github.com/latticeflow/latticeflow/ir"
)

// fixtureSchema validates the JSON program fixture's shape before it is
// decoded into ir values, the same two-step validate-then-decode the config
// package uses for taint rule files.
const fixtureSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["classes", "methods"],
  "properties": {
    "classes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name":       {"type": "string", "minLength": 1},
          "interface":  {"type": "boolean"},
          "super":      {"type": "string"},
          "implements": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["class", "name", "type"],
        "properties": {
          "class": {"type": "string", "minLength": 1},
          "name":  {"type": "string", "minLength": 1},
          "type":  {"type": "string", "minLength": 1}
        }
      }
    },
    "methods": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["class", "name", "body"],
        "properties": {
          "class":    {"type": "string", "minLength": 1},
          "name":     {"type": "string", "minLength": 1},
          "sub":      {"type": "string"},
          "static":   {"type": "boolean"},
          "abstract": {"type": "boolean"},
          "params":   {"type": "array"},
          "this":     {"type": "object"},
          "vars":     {"type": "array"},
          "returns":  {"type": "array", "items": {"type": "string"}},
          "body":     {"type": "array"}
        }
      }
    },
    "entryPoints": {"type": "array", "items": {"type": "string"}}
  }
}`

var fixtureJSONSchema = mustCompileFixtureSchema()

func mustCompileFixtureSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("program-fixture.json", strings.NewReader(fixtureSchema)); err != nil {
		panic(err)
	}
	sch, err := c.Compile("program-fixture.json")
	if err != nil {
		panic(err)
	}
	return sch
}

type fixtureVar struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type fixtureClass struct {
	Name       string   `json:"name"`
	Interface  bool     `json:"interface"`
	Super      string   `json:"super"`
	Implements []string `json:"implements"`
}

type fixtureField struct {
	Class string `json:"class"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

type fixtureExpr struct {
	Kind  string `json:"kind"` // "int", "var", "binary"
	Value int32  `json:"value"`
	Op    string `json:"op"`
	X     string `json:"x"`
	Y     string `json:"y"`
	Var   string `json:"var"`
}

type fixtureStmt struct {
	Op     string        `json:"op"`
	LHS    string        `json:"lhs"`
	RHS    *fixtureExpr  `json:"rhs"`
	Base   string        `json:"base"`
	Field  string        `json:"field"`
	Class  string        `json:"class"`
	Kind   string        `json:"kind"` // invoke dispatch kind: static/special/virtual/interface
	Sub    string        `json:"sub"`
	Recv   string        `json:"recv"`
	Args   []string      `json:"args"`
	Cond   string        `json:"cond"`
	Then   []fixtureStmt `json:"then"`
	Else   []fixtureStmt `json:"else"`
	Var    string        `json:"var"`
}

type fixtureMethod struct {
	Class    string        `json:"class"`
	Name     string        `json:"name"`
	Sub      string        `json:"sub"`
	Static   bool          `json:"static"`
	Abstract bool          `json:"abstract"`
	Params   []fixtureVar  `json:"params"`
	This     *fixtureVar   `json:"this"`
	Vars     []fixtureVar  `json:"vars"`
	Returns  []string      `json:"returns"`
	Body     []fixtureStmt `json:"body"`
}

type fixtureProgram struct {
	Classes     []fixtureClass  `json:"classes"`
	Fields      []fixtureField  `json:"fields"`
	Methods     []fixtureMethod `json:"methods"`
	EntryPoints []string        `json:"entryPoints"`
}

// loadedProgram is the ir-shaped result of decoding one fixture file: a
// hierarchy with every class and method registered, the class table
// Program.ClassResolver needs, and the fixture's own entry point list.
type loadedProgram struct {
	Hierarchy   *classhierarchy.Hierarchy
	Classes     map[string]*ir.JClass
	EntryPoints []string
}

func parseType(s string) (ir.Type, error) {
	switch s {
	case "byte":
		return ir.Byte, nil
	case "short":
		return ir.Short, nil
	case "int":
		return ir.Int, nil
	case "char":
		return ir.Char, nil
	case "boolean":
		return ir.Boolean, nil
	case "long":
		return ir.Long, nil
	case "float":
		return ir.Float, nil
	case "double":
		return ir.Double, nil
	case "reference", "ref":
		return ir.Reference, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}

// loadProgramFixture validates data against fixtureSchema, decodes it, and
// builds the ir graph it describes: classes and their hierarchy edges,
// fields (one *ir.Field per class+name pair, shared across every statement
// that references it so alias analysis sees a single identity), and every
// method's body compiled from its structured statement tree into a CFG via
// ir.Builder — the doc comment on ir.Graph names this exact loader as
// Builder's other intended caller besides tests.
func loadProgramFixture(data []byte) (*loadedProgram, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture json: %w", err)
	}
	if err := fixtureJSONSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("fixture does not match schema: %w", err)
	}

	var prog fixtureProgram
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("decode fixture json: %w", err)
	}

	classes := make(map[string]*ir.JClass, len(prog.Classes))
	for _, fc := range prog.Classes {
		classes[fc.Name] = &ir.JClass{Name: fc.Name, IsInterface: fc.Interface}
	}

	h := classhierarchy.New()
	for _, fc := range prog.Classes {
		c := classes[fc.Name]
		if fc.Super != "" {
			super, ok := classes[fc.Super]
			if !ok {
				return nil, fmt.Errorf("class %q: unknown super %q", fc.Name, fc.Super)
			}
			h.SetSuperClass(c, super)
		}
		for _, ifaceName := range fc.Implements {
			iface, ok := classes[ifaceName]
			if !ok {
				return nil, fmt.Errorf("class %q: unknown interface %q", fc.Name, ifaceName)
			}
			h.AddImplements(c, iface)
		}
	}

	fields := make(map[string]*ir.Field, len(prog.Fields))
	for _, ff := range prog.Fields {
		class, ok := classes[ff.Class]
		if !ok {
			return nil, fmt.Errorf("field %s.%s: unknown class", ff.Class, ff.Name)
		}
		typ, err := parseType(ff.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", ff.Class, ff.Name, err)
		}
		fields[ff.Class+"."+ff.Name] = &ir.Field{Declaring: class, Name: ff.Name, Type: typ}
	}

	for _, fm := range prog.Methods {
		class, ok := classes[fm.Class]
		if !ok {
			return nil, fmt.Errorf("method %s.%s: unknown class", fm.Class, fm.Name)
		}
		ref := &ir.JMethod{
			Name:      fm.Name,
			Declaring: class,
			Sub:       ir.Subsignature(fm.Sub),
			Static:    fm.Static,
			Abstract:  fm.Abstract,
		}
		h.AddMethod(ref)
		if fm.Abstract {
			continue
		}
		if err := buildMethodBody(ref, fm, classes, fields); err != nil {
			return nil, fmt.Errorf("method %s.%s: %w", fm.Class, fm.Name, err)
		}
	}

	return &loadedProgram{Hierarchy: h, Classes: classes, EntryPoints: prog.EntryPoints}, nil
}

func buildMethodBody(ref *ir.JMethod, fm fixtureMethod, classes map[string]*ir.JClass, fields map[string]*ir.Field) error {
	vars := make(map[string]*ir.Var)
	index := 0
	declareVar := func(fv fixtureVar) (*ir.Var, error) {
		typ, err := parseType(fv.Type)
		if err != nil {
			return nil, fmt.Errorf("var %q: %w", fv.Name, err)
		}
		v := ir.NewVar(fv.Name, typ, index)
		index++
		vars[fv.Name] = v
		return v, nil
	}

	var params []*ir.Var
	for _, fv := range fm.Params {
		v, err := declareVar(fv)
		if err != nil {
			return err
		}
		v.MarkParam()
		params = append(params, v)
	}
	var this *ir.Var
	if fm.This != nil {
		v, err := declareVar(*fm.This)
		if err != nil {
			return err
		}
		v.MarkThis()
		this = v
	}
	for _, fv := range fm.Vars {
		if _, err := declareVar(fv); err != nil {
			return err
		}
	}

	var returnVars []*ir.Var
	for _, name := range fm.Returns {
		v, ok := vars[name]
		if !ok {
			return fmt.Errorf("return var %q not declared", name)
		}
		returnVars = append(returnVars, v)
	}

	stmtIndex := 0
	var flat []ir.Stmt
	nodeOf := make(map[*fixtureStmt]ir.Stmt)
	if err := flattenStmts(fm.Body, vars, fields, classes, &stmtIndex, &flat, nodeOf); err != nil {
		return err
	}

	entry := ir.NewNopStmt(-1)
	exit := ir.NewNopStmt(stmtIndex)
	b := ir.NewBuilder(entry, flat, exit)

	pending := wireStmts(fm.Body, nodeOf, b, []pendingEdge{{From: entry, Kind: ir.FallThrough}})
	for _, p := range pending {
		b.AddEdge(p.Kind, 0, p.From, exit)
	}

	body := ir.NewMethod(ref, params, flat, returnVars, this, b.Build())
	for _, s := range flat {
		if inv, ok := s.(*ir.InvokeStmt); ok {
			inv.Call.Container = body
		}
	}
	return nil
}

func flattenStmts(stmts []fixtureStmt, vars map[string]*ir.Var, fields map[string]*ir.Field, classes map[string]*ir.JClass, idx *int, flat *[]ir.Stmt, nodeOf map[*fixtureStmt]ir.Stmt) error {
	for i := range stmts {
		fs := &stmts[i]
		if fs.Op == "if" {
			cond, ok := vars[fs.Cond]
			if !ok {
				return fmt.Errorf("if: unknown cond var %q", fs.Cond)
			}
			ifStmt := ir.NewIfStmt(*idx, cond)
			*idx++
			*flat = append(*flat, ifStmt)
			nodeOf[fs] = ifStmt
			if err := flattenStmts(fs.Then, vars, fields, classes, idx, flat, nodeOf); err != nil {
				return err
			}
			if err := flattenStmts(fs.Else, vars, fields, classes, idx, flat, nodeOf); err != nil {
				return err
			}
			continue
		}
		irStmt, err := buildPlainStmt(fs, idx, vars, fields, classes)
		if err != nil {
			return err
		}
		*flat = append(*flat, irStmt)
		nodeOf[fs] = irStmt
	}
	return nil
}

type pendingEdge struct {
	From ir.Stmt
	Kind ir.EdgeKind
}

// wireStmts threads control flow through stmts, connecting each incoming
// pending edge to the block's first node and returning the pending edges
// left dangling past its end, so the caller (another wireStmts call, or
// buildMethodBody for the top-level body) can connect them to whatever
// comes next.
func wireStmts(stmts []fixtureStmt, nodeOf map[*fixtureStmt]ir.Stmt, b *ir.Builder, incoming []pendingEdge) []pendingEdge {
	pending := incoming
	for i := range stmts {
		fs := &stmts[i]
		node := nodeOf[fs]
		for _, p := range pending {
			b.AddEdge(p.Kind, 0, p.From, node)
		}
		if fs.Op == "if" {
			thenPending := wireStmts(fs.Then, nodeOf, b, []pendingEdge{{From: node, Kind: ir.IfTrue}})
			elsePending := wireStmts(fs.Else, nodeOf, b, []pendingEdge{{From: node, Kind: ir.IfFalse}})
			pending = append(thenPending, elsePending...)
		} else {
			pending = []pendingEdge{{From: node, Kind: ir.FallThrough}}
		}
	}
	return pending
}

func buildPlainStmt(fs *fixtureStmt, idx *int, vars map[string]*ir.Var, fields map[string]*ir.Field, classes map[string]*ir.JClass) (ir.Stmt, error) {
	i := *idx
	*idx++

	lookupVar := func(name string) (*ir.Var, error) {
		v, ok := vars[name]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", name)
		}
		return v, nil
	}
	lookupField := func(class, name string) (*ir.Field, error) {
		f, ok := fields[class+"."+name]
		if !ok {
			return nil, fmt.Errorf("unknown field %s.%s", class, name)
		}
		return f, nil
	}

	switch fs.Op {
	case "assign":
		lhs, err := lookupVar(fs.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := buildExpr(fs.RHS, vars)
		if err != nil {
			return nil, err
		}
		return ir.NewAssignStmt(i, lhs, rhs), nil

	case "copy":
		lhs, err := lookupVar(fs.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := lookupVar(fs.Var)
		if err != nil {
			return nil, err
		}
		return ir.NewCopyStmt(i, lhs, rhs), nil

	case "new":
		lhs, err := lookupVar(fs.LHS)
		if err != nil {
			return nil, err
		}
		class, ok := classes[fs.Class]
		if !ok {
			return nil, fmt.Errorf("new: unknown class %q", fs.Class)
		}
		return ir.NewNewStmt(i, lhs, &ir.NewExpr{Type: ir.Reference, Class: class}), nil

	case "storefield":
		base, err := lookupVar(fs.Base)
		if err != nil {
			return nil, err
		}
		field, err := lookupField(fs.Class, fs.Field)
		if err != nil {
			return nil, err
		}
		rhs, err := lookupVar(fs.Var)
		if err != nil {
			return nil, err
		}
		return ir.NewStoreFieldStmt(i, &ir.InstanceFieldRef{Base: base, Field: field}, rhs), nil

	case "loadfield":
		lhs, err := lookupVar(fs.LHS)
		if err != nil {
			return nil, err
		}
		base, err := lookupVar(fs.Base)
		if err != nil {
			return nil, err
		}
		field, err := lookupField(fs.Class, fs.Field)
		if err != nil {
			return nil, err
		}
		return ir.NewLoadFieldStmt(i, lhs, &ir.InstanceFieldRef{Base: base, Field: field}), nil

	case "invoke":
		call, err := buildCallSite(i, fs, vars, classes)
		if err != nil {
			return nil, err
		}
		var lhs *ir.Var
		if fs.LHS != "" {
			lhs, err = lookupVar(fs.LHS)
			if err != nil {
				return nil, err
			}
		}
		return ir.NewInvokeStmt(i, call, lhs), nil

	case "return":
		var v *ir.Var
		if fs.Var != "" {
			var err error
			v, err = lookupVar(fs.Var)
			if err != nil {
				return nil, err
			}
		}
		return ir.NewReturnStmt(i, v), nil

	default:
		return nil, fmt.Errorf("unknown statement op %q", fs.Op)
	}
}

func buildExpr(fe *fixtureExpr, vars map[string]*ir.Var) (ir.RValue, error) {
	if fe == nil {
		return nil, fmt.Errorf("missing rhs expression")
	}
	switch fe.Kind {
	case "int":
		return &ir.IntLiteral{Value: fe.Value}, nil
	case "var":
		v, ok := vars[fe.Var]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", fe.Var)
		}
		return v, nil
	case "binary":
		op, err := parseOp(fe.Op)
		if err != nil {
			return nil, err
		}
		x, ok := vars[fe.X]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", fe.X)
		}
		y, ok := vars[fe.Y]
		if !ok {
			return nil, fmt.Errorf("unknown var %q", fe.Y)
		}
		return &ir.BinaryExpr{Op: op, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", fe.Kind)
	}
}

func parseOp(s string) (ir.Op, error) {
	switch s {
	case "ADD", "+":
		return ir.ADD, nil
	case "SUB", "-":
		return ir.SUB, nil
	case "MUL", "*":
		return ir.MUL, nil
	case "DIV", "/":
		return ir.DIV, nil
	case "REM", "%":
		return ir.REM, nil
	case "AND", "&":
		return ir.AND, nil
	case "OR", "|":
		return ir.OR, nil
	case "XOR", "^":
		return ir.XOR, nil
	case "EQ", "==":
		return ir.EQ, nil
	case "NE", "!=":
		return ir.NE, nil
	case "LT", "<":
		return ir.LT, nil
	case "LE", "<=":
		return ir.LE, nil
	case "GT", ">":
		return ir.GT, nil
	case "GE", ">=":
		return ir.GE, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}

func buildCallSite(i int, fs *fixtureStmt, vars map[string]*ir.Var, classes map[string]*ir.JClass) (*ir.CallSite, error) {
	class, ok := classes[fs.Class]
	if !ok {
		return nil, fmt.Errorf("invoke: unknown class %q", fs.Class)
	}
	kind, err := parseCallKind(fs.Kind)
	if err != nil {
		return nil, err
	}
	var recv *ir.Var
	if fs.Recv != "" {
		recv, ok = vars[fs.Recv]
		if !ok {
			return nil, fmt.Errorf("invoke: unknown receiver var %q", fs.Recv)
		}
	}
	var args []*ir.Var
	for _, a := range fs.Args {
		v, ok := vars[a]
		if !ok {
			return nil, fmt.Errorf("invoke: unknown arg var %q", a)
		}
		args = append(args, v)
	}
	return &ir.CallSite{Index: i, Kind: kind, Declaring: class, Sub: ir.Subsignature(fs.Sub), Recv: recv, Args: args}, nil
}

func parseCallKind(s string) (ir.CallKind, error) {
	switch s {
	case "", "static":
		return ir.STATIC, nil
	case "special":
		return ir.SPECIAL, nil
	case "virtual":
		return ir.VIRTUAL, nil
	case "interface":
		return ir.INTERFACE, nil
	default:
		return 0, fmt.Errorf("unknown invoke kind %q", s)
	}
}
