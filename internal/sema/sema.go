// Package sema performs static semantic analysis over a PatternScript AST:
// type attachment on every expression node and a scoped symbol table walk.
package sema

import (
	"fmt"

	"patternscript/internal/ast"
	"patternscript/internal/diag"
)

// symbol records a bound name's type and the position it was first bound.
type symbol struct {
	typ       ast.Type
	definedAt diag.Position
}

// scope is one frame of the symbol table: the program-level frame, or one
// per active loop body.
type scope struct {
	names map[string]symbol
}

func newScope() *scope {
	return &scope{names: make(map[string]symbol)}
}

// Analyzer walks an AST, attaching types and tracking bindings. A fresh
// Analyzer is constructed per invocation; it carries no state across runs.
type Analyzer struct {
	scopes []*scope
	// loopVars tracks the active loop-variable name at each enclosing
	// loop depth, so an Assign to it inside the body can be rejected.
	loopVars []string
}

func New() *Analyzer {
	return &Analyzer{scopes: []*scope{newScope()}}
}

// Analyze type-checks a full statement list and returns the first
// diagnostic encountered, if any. On success every Expr node in stmts has
// a resolved Type (invariant I1).
func (a *Analyzer) Analyze(stmts []ast.Stmt) *diag.Error {
	for _, s := range stmts {
		if err := a.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) pushScope() {
	a.scopes = append(a.scopes, newScope())
}

func (a *Analyzer) popScope() {
	a.scopes = a.scopes[:len(a.scopes)-1]
}

func (a *Analyzer) current() *scope {
	return a.scopes[len(a.scopes)-1]
}

// lookup searches innermost to outermost.
func (a *Analyzer) lookup(name string) (symbol, bool) {
	for i := len(a.scopes) - 1; i >= 0; i-- {
		if sym, ok := a.scopes[i].names[name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}

func (a *Analyzer) isActiveLoopVar(name string) bool {
	for _, v := range a.loopVars {
		if v == name {
			return true
		}
	}
	return false
}

func (a *Analyzer) stmt(s ast.Stmt) *diag.Error {
	switch n := s.(type) {
	case *ast.Assign:
		return a.assign(n)
	case *ast.Display:
		_, err := a.expr(n.Expr)
		return err
	case *ast.Give:
		_, err := a.expr(n.Expr)
		return err
	case *ast.Loop:
		return a.loop(n)
	case *ast.Check:
		return a.check(n)
	case *ast.Choose:
		return a.choose(n)
	default:
		panic(fmt.Sprintf("sema: unhandled statement type %T", n))
	}
}

func (a *Analyzer) assign(n *ast.Assign) *diag.Error {
	rhsTy, err := a.expr(n.Expr)
	if err != nil {
		return err
	}
	if a.isActiveLoopVar(n.Name) {
		return diag.New(diag.Semantic, diag.LoopVarReassignment, n.Position,
			fmt.Sprintf("cannot reassign loop variable %q inside its own loop body", n.Name))
	}
	if sym, ok := a.lookup(n.Name); ok {
		if sym.typ != rhsTy {
			return diag.New(diag.Semantic, diag.TypeMismatch, n.Position,
				fmt.Sprintf("cannot assign %s to %q, previously bound as %s at %d:%d",
					rhsTy, n.Name, sym.typ, sym.definedAt.Line, sym.definedAt.Column))
		}
		return nil
	}
	a.current().names[n.Name] = symbol{typ: rhsTy, definedAt: n.Position}
	return nil
}

func (a *Analyzer) loop(n *ast.Loop) *diag.Error {
	startTy, err := a.expr(n.Start)
	if err != nil {
		return err
	}
	if startTy != ast.Int {
		return diag.New(diag.Semantic, diag.TypeMismatch, n.Start.Pos(),
			fmt.Sprintf("loop start must be Int, got %s", startTy))
	}
	endTy, err := a.expr(n.End)
	if err != nil {
		return err
	}
	if endTy != ast.Int {
		return diag.New(diag.Semantic, diag.TypeMismatch, n.End.Pos(),
			fmt.Sprintf("loop end must be Int, got %s", endTy))
	}

	a.pushScope()
	a.current().names[n.Var] = symbol{typ: ast.Int, definedAt: n.Position}
	a.loopVars = append(a.loopVars, n.Var)

	var bodyErr *diag.Error
	for _, s := range n.Body {
		if bodyErr = a.stmt(s); bodyErr != nil {
			break
		}
	}

	a.loopVars = a.loopVars[:len(a.loopVars)-1]
	a.popScope()
	return bodyErr
}

func (a *Analyzer) check(n *ast.Check) *diag.Error {
	condTy, err := a.expr(n.Cond)
	if err != nil {
		return err
	}
	if condTy != ast.Int {
		return diag.New(diag.Semantic, diag.TypeMismatch, n.Cond.Pos(),
			fmt.Sprintf("check condition must be Int, got %s", condTy))
	}
	for _, s := range n.Then {
		if err := a.stmt(s); err != nil {
			return err
		}
	}
	for _, s := range n.Else {
		if err := a.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) choose(n *ast.Choose) *diag.Error {
	scrutineeTy, err := a.expr(n.Scrutinee)
	if err != nil {
		return err
	}
	wantKind := ast.CaseLitNumber
	if scrutineeTy == ast.Str {
		wantKind = ast.CaseLitString
	}
	for _, c := range n.Cases {
		if c.Literal.Kind != wantKind {
			return diag.New(diag.Semantic, diag.CaseTypeMismatch, c.Literal.Position,
				fmt.Sprintf("case literal kind does not match scrutinee type %s", scrutineeTy))
		}
		for _, s := range c.Body {
			if err := a.stmt(s); err != nil {
				return err
			}
		}
	}
	for _, s := range n.Default {
		if err := a.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// expr resolves and attaches the type of an expression node, returning it.
func (a *Analyzer) expr(e ast.Expr) (ast.Type, *diag.Error) {
	switch n := e.(type) {
	case *ast.NumLit:
		ast.SetType(n, ast.Int)
		return ast.Int, nil

	case *ast.StrLit:
		ast.SetType(n, ast.Str)
		return ast.Str, nil

	case *ast.VarRef:
		sym, ok := a.lookup(n.Name)
		if !ok {
			return ast.Unresolved, diag.New(diag.Semantic, diag.UndefinedVariable, n.Position,
				fmt.Sprintf("undefined variable %q", n.Name))
		}
		ast.SetType(n, sym.typ)
		return sym.typ, nil

	case *ast.Binary:
		return a.binary(n)

	case *ast.Neg:
		return a.neg(n)

	default:
		panic(fmt.Sprintf("sema: unhandled expression type %T", n))
	}
}

func (a *Analyzer) neg(n *ast.Neg) (ast.Type, *diag.Error) {
	operandTy, err := a.expr(n.Expr)
	if err != nil {
		return ast.Unresolved, err
	}
	if operandTy != ast.Int {
		return ast.Unresolved, diag.New(diag.Semantic, diag.InvalidOperandTypes, n.Position,
			fmt.Sprintf("unary '-' requires Int, got %s", operandTy))
	}
	ast.SetType(n, ast.Int)
	return ast.Int, nil
}

// staticNegativeConstant reports whether e is syntactically a negated
// non-zero literal (`-2`), the only statically-known-negative form the lexer and
// parser can produce — NUMBER lexemes are always non-negative digit
// strings, so any negative constant must route through Neg.
func staticNegativeConstant(e ast.Expr) bool {
	neg, ok := e.(*ast.Neg)
	if !ok {
		return false
	}
	lit, ok := neg.Expr.(*ast.NumLit)
	return ok && lit.Value > 0
}

func (a *Analyzer) binary(n *ast.Binary) (ast.Type, *diag.Error) {
	leftTy, err := a.expr(n.Left)
	if err != nil {
		return ast.Unresolved, err
	}
	rightTy, err := a.expr(n.Right)
	if err != nil {
		return ast.Unresolved, err
	}

	var resultTy ast.Type
	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMod:
		if leftTy != ast.Int || rightTy != ast.Int {
			return ast.Unresolved, invalidOperands(n, leftTy, rightTy)
		}
		resultTy = ast.Int

	case ast.OpMul:
		switch {
		case leftTy == ast.Int && rightTy == ast.Int:
			resultTy = ast.Int
		case leftTy == ast.Str && rightTy == ast.Int:
			if staticNegativeConstant(n.Right) {
				return ast.Unresolved, diag.New(diag.Semantic, diag.NegativeRepeatStatic, n.Position,
					"string repetition count is a statically known negative integer")
			}
			resultTy = ast.Str
		case leftTy == ast.Int && rightTy == ast.Str:
			if staticNegativeConstant(n.Left) {
				return ast.Unresolved, diag.New(diag.Semantic, diag.NegativeRepeatStatic, n.Position,
					"string repetition count is a statically known negative integer")
			}
			resultTy = ast.Str
		default:
			return ast.Unresolved, invalidOperands(n, leftTy, rightTy)
		}

	case ast.OpStitch:
		resultTy = ast.Str

	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		if leftTy != ast.Int || rightTy != ast.Int {
			return ast.Unresolved, invalidOperands(n, leftTy, rightTy)
		}
		resultTy = ast.Int

	default:
		panic(fmt.Sprintf("sema: unhandled operator %q", n.Op))
	}

	ast.SetType(n, resultTy)
	return resultTy, nil
}

func invalidOperands(n *ast.Binary, lhs, rhs ast.Type) *diag.Error {
	return diag.New(diag.Semantic, diag.InvalidOperandTypes, n.Position,
		fmt.Sprintf("invalid operand types for %q: %s, %s", n.Op, lhs, rhs))
}
