package patternscript

import (
	"reflect"
	"testing"

	"github.com/kr/pretty"

	"patternscript/internal/diag"
)

// ===== End-to-end scenarios =====

func TestRun_LiteralIOScenarios(t *testing.T) {
	tests := []struct {
		name   string
		source string
		output []string
	}{
		{"arithmetic then display", `x = 4: y = x * 5: display y:`, []string{"20"}},
		{"stitch chain", `display "ID=" ~ 1 ~ 2 ~ 3:`, []string{"ID=123"}},
		{"star repeat and string repeat", `display "*" * 5: display 3 * "Yo":`, []string{"*****", "YoYoYo"}},
		{"check with mandatory else", `name = "Love": score = 8: check score > 5 { display name ~ " passed!": } else { display name ~ " failed!": }`, []string{"Love passed!"}},
		{"loop with stitch and repeat", `loop i in 1..3 { display "Step " ~ i ~ ": " ~ ("-" * i): }`, []string{"Step 1: -", "Step 2: --", "Step 3: ---"}},
		{"choose dispatch", `day = 3: choose day { 1: display "Mon": 2: display "Tue": 3: display "Wed": default: display "Unknown": }`, []string{"Wed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(tt.source)
			if err != nil {
				t.Fatalf("unexpected diagnostic: %v", err)
			}
			if !reflect.DeepEqual(got.Output, tt.output) {
				t.Errorf("output mismatch:\n%s", pretty.Diff(tt.output, got.Output))
			}
		})
	}
}

func TestRun_Diagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stage  diag.Stage
		kind   diag.Kind
	}{
		{"relational on strings", `display "a" < "b":`, diag.Semantic, diag.InvalidOperandTypes},
		{"static negative repeat", `display "hi" * -2:`, diag.Semantic, diag.NegativeRepeatStatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.source)
			if err == nil {
				t.Fatalf("expected a diagnostic, got none")
			}
			if err.Stage != tt.stage || err.Kind != tt.kind {
				t.Errorf("got %s/%s, want %s/%s", err.Stage, err.Kind, tt.stage, tt.kind)
			}
		})
	}
}

// ===== Boundary behaviors =====

func TestRun_LoopBoundaries(t *testing.T) {
	t.Run("a == b runs exactly one iteration", func(t *testing.T) {
		got, err := Run(`loop i in 5..5 { display i: }`)
		if err != nil {
			t.Fatalf("unexpected diagnostic: %v", err)
		}
		if !reflect.DeepEqual(got.Output, []string{"5"}) {
			t.Errorf("got %v", got.Output)
		}
	})

	t.Run("a > b runs zero iterations", func(t *testing.T) {
		got, err := Run(`loop i in 5..1 { display i: } display "after":`)
		if err != nil {
			t.Fatalf("unexpected diagnostic: %v", err)
		}
		if !reflect.DeepEqual(got.Output, []string{"after"}) {
			t.Errorf("got %v", got.Output)
		}
	})
}

func TestRun_ChooseDefault(t *testing.T) {
	got, err := Run(`day = 9: choose day { 1: display "Mon": default: display "Unknown": }`)
	if err != nil {
		t.Fatalf("unexpected diagnostic: %v", err)
	}
	if !reflect.DeepEqual(got.Output, []string{"Unknown"}) {
		t.Errorf("got %v", got.Output)
	}
}

func TestRun_GiveInsideLoopStopsEarly(t *testing.T) {
	got, err := Run(`loop i in 1..5 { display i: check i == 2 { give i: } else { } }`)
	if err != nil {
		t.Fatalf("unexpected diagnostic: %v", err)
	}
	if !reflect.DeepEqual(got.Output, []string{"1", "2"}) {
		t.Errorf("got %v", got.Output)
	}
	if got.GiveValue == nil || got.GiveValue.Int != 2 {
		t.Errorf("expected give value 2, got %v", got.GiveValue)
	}
}

func TestRun_UndefinedVariable(t *testing.T) {
	_, err := Run(`display x:`)
	if err == nil || err.Kind != diag.UndefinedVariable {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
}

func TestRun_DivideByZero(t *testing.T) {
	_, err := Run(`x = 5: y = 0: display x % y:`)
	if err == nil || err.Stage != diag.Runtime || err.Kind != diag.DivideByZero {
		t.Fatalf("expected Runtime/DivideByZero, got %v", err)
	}
}
