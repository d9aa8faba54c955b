// Package diag defines the typed diagnostics produced by every stage of
// the PatternScript pipeline.
package diag

import (
	"fmt"
	"strings"
)

// Stage identifies which pipeline phase raised a diagnostic.
type Stage string

const (
	Lex      Stage = "Lex"
	Parse    Stage = "Parse"
	Semantic Stage = "Semantic"
	Runtime  Stage = "Runtime"
)

// Kind enumerates the closed set of diagnostic kinds per spec §7.
type Kind string

const (
	// Lex
	IllegalCharacter  Kind = "IllegalCharacter"
	UnterminatedString Kind = "UnterminatedString"

	// Parse
	UnexpectedToken   Kind = "UnexpectedToken"
	MissingTerminator Kind = "MissingTerminator"
	MissingDefault    Kind = "MissingDefault"
	InvalidCaseLiteral Kind = "InvalidCaseLiteral"

	// Semantic
	UndefinedVariable    Kind = "UndefinedVariable"
	TypeMismatch         Kind = "TypeMismatch"
	InvalidOperandTypes  Kind = "InvalidOperandTypes"
	CaseTypeMismatch     Kind = "CaseTypeMismatch"
	NegativeRepeatStatic Kind = "NegativeRepeat"
	LoopVarReassignment  Kind = "LoopVarReassignment"

	// Runtime
	DivideByZero          Kind = "DivideByZero"
	NegativeRepeatDynamic Kind = "NegativeRepeat"
	TypeErrorAtRuntime    Kind = "TypeErrorAtRuntime"
)

// Position is a source location. A zero Position (Line == 0) means "no
// position is associated with this diagnostic."
type Position struct {
	Line   int
	Column int
}

// Error is the single typed diagnostic value the pipeline ever produces.
// The first error at any stage aborts the pipeline; it is returned to the
// caller verbatim, never wrapped in a generic error chain.
type Error struct {
	Stage    Stage
	Kind     Kind
	Position Position
	Message  string
	// Source is the offending source line, when available, for
	// caret-style rendering.
	Source string
}

func New(stage Stage, kind Kind, pos Position, message string) *Error {
	return &Error{Stage: stage, Kind: kind, Position: pos, Message: message}
}

// WithSource attaches the offending source line for caret rendering.
func (e *Error) WithSource(line string) *Error {
	e.Source = line
	return e
}

// Error implements the error interface, rendering the line format
// "<stage> error at <line>:<col>: <message>", or "<stage> error: <message>"
// when no position is associated with the diagnostic.
func (e *Error) Error() string {
	if e.Position.Line == 0 {
		return fmt.Sprintf("%s error: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s error at %d:%d: %s", e.Stage, e.Position.Line, e.Position.Column, e.Message)
}

// Render produces a multi-line rendering with the source line and a caret
// under the offending column, mirroring the teacher's SentraError output.
func (e *Error) Render() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if e.Source != "" && e.Position.Column > 0 {
		sb.WriteString("\n  ")
		sb.WriteString(e.Source)
		sb.WriteString("\n  ")
		sb.WriteString(strings.Repeat(" ", e.Position.Column-1))
		sb.WriteString("^")
	}
	return sb.String()
}
