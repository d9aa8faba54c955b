package parser

import (
	"fmt"
	"strings"
	"testing"

	"patternscript/internal/ast"
	"patternscript/internal/diag"
	"patternscript/internal/lexer"
)

func parseString(input string) (stmts []ast.Stmt, err *diag.Error) {
	tokens, lexErr := lexer.New(input).ScanTokens()
	if lexErr != nil {
		return nil, lexErr
	}
	return New(tokens, input).Parse()
}

func assertParseSuccess(t *testing.T, input, description string) []ast.Stmt {
	t.Helper()
	stmts, err := parseString(input)
	if err != nil {
		t.Errorf("%s: unexpected parse error: %v", description, err)
		return nil
	}
	return stmts
}

func assertParseError(t *testing.T, input, description string) {
	t.Helper()
	_, err := parseString(input)
	if err == nil {
		t.Errorf("%s: expected a parse error but parsing succeeded", description)
	}
}

func assertParseErrorKind(t *testing.T, input, description string, kind diag.Kind) {
	t.Helper()
	_, err := parseString(input)
	if err == nil {
		t.Errorf("%s: expected a parse error but parsing succeeded", description)
		return
	}
	if err.Kind != kind {
		t.Errorf("%s: got error kind %s, want %s", description, err.Kind, kind)
	}
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		shouldPass bool
	}{
		{"assignment", `x = 5:`, true},
		{"display", `display "hi":`, true},
		{"give", `give 1:`, true},
		{"loop", `loop i in 1..3 { display i: }`, true},
		{"check with mandatory else", `check 1 { display "a": } else { display "b": }`, true},
		{"check without else rejected", `check 1 { display "a": }`, false},
		{"choose with default", `choose 1 { 1: display "a": default: display "b": }`, true},
		{"choose without default rejected", `choose 1 { 1: display "a": }`, false},
		{"unknown statement start", `123:`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldPass {
				stmts := assertParseSuccess(t, tt.input, tt.name)
				if stmts == nil {
					t.Errorf("%s: expected non-nil statements", tt.name)
				}
			} else {
				assertParseError(t, tt.input, tt.name)
			}
		})
	}
}

func TestParse_ExpressionPrecedence(t *testing.T) {
	stmts := assertParseSuccess(t, `x = 1 + 2 * 3:`, "precedence")
	assign, ok := stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign, got %T", stmts[0])
	}
	bin, ok := assign.Expr.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected top-level '+', got %#v", assign.Expr)
	}
	rhs, ok := bin.Right.(*ast.Binary)
	if !ok || rhs.Op != ast.OpMul {
		t.Fatalf("expected '*' nested under '+', got %#v", bin.Right)
	}
}

func TestParse_MissingTerminatorReportsCorrectKind(t *testing.T) {
	assertParseErrorKind(t, `display "hi"`, "missing terminator colon", diag.MissingTerminator)
}

func TestParse_InvalidCaseLiteralReportsCorrectKind(t *testing.T) {
	assertParseErrorKind(t, `choose 1 { x: display "a": default: display "b": }`,
		"case literal must be literal, not ident", diag.InvalidCaseLiteral)
}

func TestParse_RelationalIsNonAssociative(t *testing.T) {
	// A second comparison operator has no production to bind to, so it
	// must fail to parse rather than chain.
	assertParseError(t, `display 1 < 2 < 3:`, "chained comparison")
}

func TestParse_UnaryMinus(t *testing.T) {
	stmts := assertParseSuccess(t, `display "hi" * -2:`, "unary minus")
	display := stmts[0].(*ast.Display)
	bin := display.Expr.(*ast.Binary)
	if bin.Op != ast.OpMul {
		t.Fatalf("expected top-level '*', got %v", bin.Op)
	}
	neg, ok := bin.Right.(*ast.Neg)
	if !ok {
		t.Fatalf("expected right side to be a Neg node, got %T", bin.Right)
	}
	lit, ok := neg.Expr.(*ast.NumLit)
	if !ok || lit.Value != 2 {
		t.Fatalf("expected Neg(NumLit(2)), got %#v", neg.Expr)
	}
}

func TestParse_ParenthesizedExpression(t *testing.T) {
	stmts := assertParseSuccess(t, `x = (1 + 2) * 3:`, "parens")
	assign := stmts[0].(*ast.Assign)
	bin := assign.Expr.(*ast.Binary)
	if bin.Op != ast.OpMul {
		t.Fatalf("expected top-level '*', got %v", bin.Op)
	}
	if _, ok := bin.Left.(*ast.Binary); !ok {
		t.Fatalf("expected left side to be the parenthesized '+' expression")
	}
}

func TestParse_ChooseCaseBodiesSplitOnNextLiteral(t *testing.T) {
	stmts := assertParseSuccess(t, `choose 1 { 1: display "a": display "b": 2: display "c": default: display "d": }`, "multi-statement case body")
	choose := stmts[0].(*ast.Choose)
	if len(choose.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(choose.Cases))
	}
	if len(choose.Cases[0].Body) != 2 {
		t.Fatalf("expected first case body to hold 2 statements, got %d", len(choose.Cases[0].Body))
	}
	if len(choose.Cases[1].Body) != 1 {
		t.Fatalf("expected second case body to hold 1 statement, got %d", len(choose.Cases[1].Body))
	}
	if len(choose.Default) != 1 {
		t.Fatalf("expected default body to hold 1 statement, got %d", len(choose.Default))
	}
}

func TestParse_ErrorMessageNamesExpectedToken(t *testing.T) {
	_, err := parseString(`display "hi"`)
	if err == nil {
		t.Fatal("expected an error")
	}
	got := fmt.Sprint(err)
	if !strings.Contains(got, "':'") {
		t.Fatalf("expected the error message to name the expected ':' token, got %q", got)
	}
}
