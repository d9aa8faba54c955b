// Package interp executes TAC against a runtime value store. Execution is
// single-threaded, sequential, and deterministic.
package interp

import (
	"strconv"
	"strings"

	"patternscript/internal/diag"
	"patternscript/internal/ir"
)

// ValueKind is the closed set of runtime value tags.
type ValueKind int

const (
	VInt ValueKind = iota
	VStr
)

// Value is the runtime tagged union: Int(i64) or Str(text).
type Value struct {
	Kind ValueKind
	Int  int64
	Str  string
}

func IntValue(v int64) Value { return Value{Kind: VInt, Int: v} }
func StrValue(s string) Value { return Value{Kind: VStr, Str: s} }

func (v Value) text() string {
	if v.Kind == VInt {
		return strconv.FormatInt(v.Int, 10)
	}
	return v.Str
}

func (v Value) equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.Kind == VInt {
		return v.Int == other.Int
	}
	return v.Str == other.Str
}

// Result is the outcome of a successful run: the ordered output lines and
// the optional value passed to `give`.
type Result struct {
	Output     []string
	GiveValue  *Value
}

// Interp holds the per-invocation runtime state: a name-keyed store, a
// temp-keyed store, and the collected output. A fresh Interp is built per
// Run; nothing carries across invocations.
type Interp struct {
	names  map[string]Value
	temps  map[int]Value
	output []string
}

// Run executes a TAC program to completion (or to its first GIVE) and
// returns the collected output, or the first runtime diagnostic.
func Run(instrs []ir.Instruction) (Result, *diag.Error) {
	it := &Interp{
		names: make(map[string]Value),
		temps: make(map[int]Value),
	}
	return it.run(instrs)
}

func (it *Interp) run(instrs []ir.Instruction) (Result, *diag.Error) {
	labels := buildLabelIndex(instrs)

	pc := 0
	for pc < len(instrs) {
		ins := instrs[pc]
		switch ins.Op {
		case ir.OpLabel:
			// no-op marker

		case ir.OpGoto:
			pc = labels[ins.Label]
			continue

		case ir.OpIfFalse:
			v, err := it.resolveInt(ins.A)
			if err != nil {
				return Result{}, err
			}
			if v == 0 {
				pc = labels[ins.Label]
				continue
			}

		case ir.OpIfNeqConst:
			a, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			c, err := it.resolve(ins.Const)
			if err != nil {
				return Result{}, err
			}
			if !a.equal(c) {
				pc = labels[ins.Label]
				continue
			}

		case ir.OpCopy:
			v, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			it.assign(ins.Dst, v)

		case ir.OpToStr:
			v, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			it.assign(ins.Dst, StrValue(v.text()))

		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpMod:
			if err := it.arith(ins); err != nil {
				return Result{}, err
			}

		case ir.OpStitch:
			a, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			b, err := it.resolve(ins.B)
			if err != nil {
				return Result{}, err
			}
			it.assign(ins.Dst, StrValue(a.text()+b.text()))

		case ir.OpRepeat:
			if err := it.repeat(ins); err != nil {
				return Result{}, err
			}

		case ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpLt, ir.OpCmpGt, ir.OpCmpLe, ir.OpCmpGe:
			if err := it.compare(ins); err != nil {
				return Result{}, err
			}

		case ir.OpDisplay:
			v, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			it.output = append(it.output, v.text())

		case ir.OpGive:
			v, err := it.resolve(ins.A)
			if err != nil {
				return Result{}, err
			}
			return Result{Output: it.output, GiveValue: &v}, nil

		default:
			return Result{}, diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{},
				"unhandled TAC opcode "+string(ins.Op))
		}
		pc++
	}
	return Result{Output: it.output}, nil
}

func buildLabelIndex(instrs []ir.Instruction) map[string]int {
	labels := make(map[string]int)
	for i, ins := range instrs {
		if ins.Op == ir.OpLabel {
			labels[ins.Label] = i
		}
	}
	return labels
}

func (it *Interp) arith(ins ir.Instruction) *diag.Error {
	a, err := it.resolveInt(ins.A)
	if err != nil {
		return err
	}
	b, err := it.resolveInt(ins.B)
	if err != nil {
		return err
	}
	var result int64
	switch ins.Op {
	case ir.OpAdd:
		result = a + b
	case ir.OpSub:
		result = a - b
	case ir.OpMul:
		result = a * b
	case ir.OpMod:
		if b == 0 {
			return diag.New(diag.Runtime, diag.DivideByZero, diag.Position{}, "modulo by zero")
		}
		result = a % b
	}
	it.assign(ins.Dst, IntValue(result))
	return nil
}

func (it *Interp) repeat(ins ir.Instruction) *diag.Error {
	a, err := it.resolve(ins.A)
	if err != nil {
		return err
	}
	b, err := it.resolve(ins.B)
	if err != nil {
		return err
	}
	var str string
	var count int64
	switch {
	case a.Kind == VStr && b.Kind == VInt:
		str, count = a.Str, b.Int
	case b.Kind == VStr && a.Kind == VInt:
		str, count = b.Str, a.Int
	default:
		return diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{},
			"string repetition requires one string and one int operand")
	}
	if count < 0 {
		return diag.New(diag.Runtime, diag.NegativeRepeatDynamic, diag.Position{},
			"string repetition count is negative")
	}
	it.assign(ins.Dst, StrValue(strings.Repeat(str, int(count))))
	return nil
}

func (it *Interp) compare(ins ir.Instruction) *diag.Error {
	a, err := it.resolveInt(ins.A)
	if err != nil {
		return err
	}
	b, err := it.resolveInt(ins.B)
	if err != nil {
		return err
	}
	var held bool
	switch ins.Op {
	case ir.OpCmpEq:
		held = a == b
	case ir.OpCmpNeq:
		held = a != b
	case ir.OpCmpLt:
		held = a < b
	case ir.OpCmpGt:
		held = a > b
	case ir.OpCmpLe:
		held = a <= b
	case ir.OpCmpGe:
		held = a >= b
	}
	v := int64(0)
	if held {
		v = 1
	}
	it.assign(ins.Dst, IntValue(v))
	return nil
}

func (it *Interp) resolve(o ir.Operand) (Value, *diag.Error) {
	switch o.Kind {
	case ir.KindIntConst:
		return IntValue(o.Int), nil
	case ir.KindStrConst:
		return StrValue(o.Str), nil
	case ir.KindName:
		if v, ok := it.names[o.Name]; ok {
			return v, nil
		}
		return Value{}, diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{},
			"read of unbound name "+o.Name)
	case ir.KindTemp:
		if v, ok := it.temps[o.Temp]; ok {
			return v, nil
		}
		return Value{}, diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{},
			"read of unassigned temporary")
	default:
		return Value{}, diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{}, "malformed operand")
	}
}

func (it *Interp) resolveInt(o ir.Operand) (int64, *diag.Error) {
	v, err := it.resolve(o)
	if err != nil {
		return 0, err
	}
	if v.Kind != VInt {
		return 0, diag.New(diag.Runtime, diag.TypeErrorAtRuntime, diag.Position{},
			"expected Int operand, got Str")
	}
	return v.Int, nil
}

func (it *Interp) assign(dst ir.Operand, v Value) {
	switch dst.Kind {
	case ir.KindName:
		it.names[dst.Name] = v
	case ir.KindTemp:
		it.temps[dst.Temp] = v
	}
}
