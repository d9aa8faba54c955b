package ir

import (
	"fmt"

	"patternscript/internal/ast"
)

// Generator lowers a typed AST into TAC. A fresh Generator is built per
// invocation; its temp/label counters never carry over between runs.
type Generator struct {
	instrs   []Instruction
	tempNum  int
	labelNum int
}

func New() *Generator {
	return &Generator{}
}

// Generate lowers a full statement list and returns the resulting TAC.
func Generate(stmts []ast.Stmt) []Instruction {
	g := New()
	for _, s := range stmts {
		g.stmt(s)
	}
	return g.instrs
}

func (g *Generator) newTemp() Operand {
	t := Temp(g.tempNum)
	g.tempNum++
	return t
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf("L%d", g.labelNum)
	g.labelNum++
	return l
}

func (g *Generator) emit(ins Instruction) {
	g.instrs = append(g.instrs, ins)
}

func (g *Generator) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		src := g.expr(n.Expr)
		g.emit(Instruction{Op: OpCopy, Dst: Name(n.Name), A: src})

	case *ast.Display:
		src := g.expr(n.Expr)
		g.emit(Instruction{Op: OpDisplay, A: src})

	case *ast.Give:
		src := g.expr(n.Expr)
		g.emit(Instruction{Op: OpGive, A: src})

	case *ast.Loop:
		g.loop(n)

	case *ast.Check:
		g.check(n)

	case *ast.Choose:
		g.choose(n)

	default:
		panic(fmt.Sprintf("ir: unhandled statement type %T", n))
	}
}

func (g *Generator) check(n *ast.Check) {
	cond := g.expr(n.Cond)
	lElse := g.newLabel()
	lEnd := g.newLabel()

	g.emit(Instruction{Op: OpIfFalse, A: cond, Label: lElse})
	for _, s := range n.Then {
		g.stmt(s)
	}
	g.emit(Instruction{Op: OpGoto, Label: lEnd})
	g.emit(Instruction{Op: OpLabel, Label: lElse})
	for _, s := range n.Else {
		g.stmt(s)
	}
	g.emit(Instruction{Op: OpLabel, Label: lEnd})
}

func (g *Generator) loop(n *ast.Loop) {
	startOperand := g.expr(n.Start)
	endTemp := g.newTemp()
	g.emit(Instruction{Op: OpCopy, Dst: endTemp, A: g.expr(n.End)})
	g.emit(Instruction{Op: OpCopy, Dst: Name(n.Var), A: startOperand})

	lHead := g.newLabel()
	lDone := g.newLabel()

	g.emit(Instruction{Op: OpLabel, Label: lHead})
	cond := g.newTemp()
	g.emit(Instruction{Op: OpCmpLe, Dst: cond, A: Name(n.Var), B: endTemp})
	g.emit(Instruction{Op: OpIfFalse, A: cond, Label: lDone})

	for _, s := range n.Body {
		g.stmt(s)
	}

	g.emit(Instruction{Op: OpAdd, Dst: Name(n.Var), A: Name(n.Var), B: IntConst(1)})
	g.emit(Instruction{Op: OpGoto, Label: lHead})
	g.emit(Instruction{Op: OpLabel, Label: lDone})
}

func (g *Generator) choose(n *ast.Choose) {
	scrutinee := g.expr(n.Scrutinee)
	lEnd := g.newLabel()

	for _, c := range n.Cases {
		lNext := g.newLabel()
		g.emit(Instruction{Op: OpIfNeqConst, A: scrutinee, Const: caseLiteralOperand(c.Literal), Label: lNext})
		for _, s := range c.Body {
			g.stmt(s)
		}
		g.emit(Instruction{Op: OpGoto, Label: lEnd})
		g.emit(Instruction{Op: OpLabel, Label: lNext})
	}

	for _, s := range n.Default {
		g.stmt(s)
	}
	g.emit(Instruction{Op: OpLabel, Label: lEnd})
}

func caseLiteralOperand(lit ast.CaseLiteral) Operand {
	if lit.Kind == ast.CaseLitNumber {
		return IntConst(lit.IntVal)
	}
	return StrConst(lit.StrVal)
}

func (g *Generator) expr(e ast.Expr) Operand {
	switch n := e.(type) {
	case *ast.NumLit:
		return IntConst(n.Value)
	case *ast.StrLit:
		return StrConst(n.Value)
	case *ast.VarRef:
		return Name(n.Name)
	case *ast.Binary:
		return g.binary(n)
	case *ast.Neg:
		return g.neg(n)
	default:
		panic(fmt.Sprintf("ir: unhandled expression type %T", n))
	}
}

// neg lowers `-e` to `0 - e`: no dedicated NEG opcode is needed, and the
// optimizer's constant-folding pass collapses it when e is itself
// constant.
func (g *Generator) neg(n *ast.Neg) Operand {
	operand := g.expr(n.Expr)
	dst := g.newTemp()
	g.emit(Instruction{Op: OpSub, Dst: dst, A: IntConst(0), B: operand})
	return dst
}

func (g *Generator) binary(n *ast.Binary) Operand {
	left := g.expr(n.Left)
	right := g.expr(n.Right)
	op := binOpcode(n.Op, n.Left.ResolvedType(), n.Right.ResolvedType())
	dst := g.newTemp()
	g.emit(Instruction{Op: op, Dst: dst, A: left, B: right})
	return dst
}

func binOpcode(op ast.BinOp, leftTy, rightTy ast.Type) Op {
	switch op {
	case ast.OpAdd:
		return OpAdd
	case ast.OpSub:
		return OpSub
	case ast.OpMod:
		return OpMod
	case ast.OpStitch:
		return OpStitch
	case ast.OpMul:
		if leftTy == ast.Int && rightTy == ast.Int {
			return OpMul
		}
		return OpRepeat
	case ast.OpEq:
		return OpCmpEq
	case ast.OpNeq:
		return OpCmpNeq
	case ast.OpLt:
		return OpCmpLt
	case ast.OpGt:
		return OpCmpGt
	case ast.OpLe:
		return OpCmpLe
	case ast.OpGe:
		return OpCmpGe
	default:
		panic(fmt.Sprintf("ir: unhandled operator %q", op))
	}
}
