// Package optimize runs a fixed-point pass over TAC: constant folding,
// algebraic identities, and dead-code elimination past unconditional
// transfers. It never changes observable behavior — a fold that would
// itself raise a runtime error is left for the interpreter to raise.
package optimize

import (
	"fmt"
	"strconv"
	"strings"

	"patternscript/internal/ir"
)

// Run applies every rule to a fixed point: it keeps re-scanning until no
// rule fires in a full pass.
func Run(instrs []ir.Instruction) []ir.Instruction {
	for {
		folded, changed1 := foldPass(instrs)
		pruned, changed2 := deadCodePass(folded)
		instrs = pruned
		if !changed1 && !changed2 {
			return instrs
		}
	}
}

// foldPass applies constant folding and algebraic identities in a single
// left-to-right scan.
func foldPass(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	changed := false
	out := make([]ir.Instruction, len(instrs))
	for i, ins := range instrs {
		if folded, ok := foldOne(ins); ok {
			out[i] = folded
			changed = true
		} else {
			out[i] = ins
		}
	}
	return out, changed
}

func foldOne(ins ir.Instruction) (ir.Instruction, bool) {
	switch ins.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpMod:
		return foldArith(ins)
	case ir.OpStitch:
		return foldStitch(ins)
	case ir.OpRepeat:
		return foldRepeat(ins)
	case ir.OpCmpEq, ir.OpCmpNeq, ir.OpCmpLt, ir.OpCmpGt, ir.OpCmpLe, ir.OpCmpGe:
		return foldCompare(ins)
	default:
		return ins, false
	}
}

func foldArith(ins ir.Instruction) (ir.Instruction, bool) {
	// Algebraic identities fire even when only one side is constant.
	if isIntConst(ins.B, 0) && (ins.Op == ir.OpAdd || ins.Op == ir.OpSub) {
		return copyOf(ins.Dst, ins.A), true
	}
	if isIntConst(ins.A, 0) && ins.Op == ir.OpAdd {
		return copyOf(ins.Dst, ins.B), true
	}
	if ins.Op == ir.OpMul {
		if isIntConst(ins.B, 1) {
			return copyOf(ins.Dst, ins.A), true
		}
		if isIntConst(ins.A, 1) {
			return copyOf(ins.Dst, ins.B), true
		}
		if isIntConst(ins.A, 0) || isIntConst(ins.B, 0) {
			return copyOf(ins.Dst, ir.IntConst(0)), true
		}
	}

	if !ins.A.IsConst() || !ins.B.IsConst() {
		return ins, false
	}
	a, b := ins.A.Int, ins.B.Int
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
			return ins, false // leave the runtime error intact
		}
		result = a % b
	}
	return copyOf(ins.Dst, ir.IntConst(result)), true
}

func foldStitch(ins ir.Instruction) (ir.Instruction, bool) {
	if isStrConst(ins.A, "") && !ins.B.IsConst() {
		return ir.Instruction{Op: ir.OpToStr, Dst: ins.Dst, A: ins.B}, true
	}
	if isStrConst(ins.B, "") && !ins.A.IsConst() {
		return ir.Instruction{Op: ir.OpToStr, Dst: ins.Dst, A: ins.A}, true
	}
	if !ins.A.IsConst() || !ins.B.IsConst() {
		return ins, false
	}
	return copyOf(ins.Dst, ir.StrConst(textOf(ins.A)+textOf(ins.B))), true
}

func foldRepeat(ins ir.Instruction) (ir.Instruction, bool) {
	// s * 0 -> "" regardless of which side carries the string.
	if isIntConst(ins.A, 0) || isIntConst(ins.B, 0) {
		return copyOf(ins.Dst, ir.StrConst("")), true
	}
	if !ins.A.IsConst() || !ins.B.IsConst() {
		return ins, false
	}
	str, count, ok := stringAndCount(ins.A, ins.B)
	if !ok || count < 0 {
		return ins, false // negative repeat: leave for the runtime error
	}
	return copyOf(ins.Dst, ir.StrConst(strings.Repeat(str, int(count)))), true
}

func foldCompare(ins ir.Instruction) (ir.Instruction, bool) {
	if !ins.A.IsConst() || !ins.B.IsConst() {
		return ins, false
	}
	a, b := ins.A.Int, ins.B.Int
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
	return copyOf(ins.Dst, ir.IntConst(v)), true
}

func stringAndCount(a, b ir.Operand) (string, int64, bool) {
	if a.Kind == ir.KindStrConst && b.Kind == ir.KindIntConst {
		return a.Str, b.Int, true
	}
	if b.Kind == ir.KindStrConst && a.Kind == ir.KindIntConst {
		return b.Str, a.Int, true
	}
	return "", 0, false
}

func textOf(o ir.Operand) string {
	switch o.Kind {
	case ir.KindStrConst:
		return o.Str
	case ir.KindIntConst:
		return strconv.FormatInt(o.Int, 10)
	default:
		panic(fmt.Sprintf("optimize: textOf on non-constant operand %v", o))
	}
}

func isIntConst(o ir.Operand, v int64) bool {
	return o.Kind == ir.KindIntConst && o.Int == v
}

func isStrConst(o ir.Operand, v string) bool {
	return o.Kind == ir.KindStrConst && o.Str == v
}

func copyOf(dst, src ir.Operand) ir.Instruction {
	return ir.Instruction{Op: ir.OpCopy, Dst: dst, A: src}
}

// deadCodePass removes every instruction strictly between a GIVE or an
// unconditional GOTO and the next LABEL. Labels themselves are always
// kept (invariant I3: unreachable-label pruning is deliberately not
// performed).
func deadCodePass(instrs []ir.Instruction) ([]ir.Instruction, bool) {
	out := make([]ir.Instruction, 0, len(instrs))
	dead := false
	changed := false
	for _, ins := range instrs {
		if ins.Op == ir.OpLabel {
			dead = false
			out = append(out, ins)
			continue
		}
		if dead {
			changed = true
			continue
		}
		out = append(out, ins)
		if ins.Op == ir.OpGive || ins.Op == ir.OpGoto {
			dead = true
		}
	}
	return out, changed
}
