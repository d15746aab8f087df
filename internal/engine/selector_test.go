package engine

import (
	"testing"

	"github.com/HlisTilen/NiaARM/internal/dataset"
	"github.com/HlisTilen/NiaARM/internal/mining"
)

func testRule(t *testing.T) *mining.Rule {
	t.Helper()
	d, err := dataset.New(
		&dataset.Column{Name: "color", Labels: []string{"red", "red", "red", "red", "blue", "blue", "green", "green", "blue", "green"}},
		&dataset.Column{Name: "temp", Continuous: true, Numbers: []float64{30, 30, 15, 15, 15, 15, 15, 5, 5, 5}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	r, err := mining.NewRule(
		[]mining.Attribute{mining.Category("color", "red")},
		[]mining.Attribute{mining.Interval("temp", 10, 20)},
		d,
	)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}
	return r
}

func TestSelector_Evaluate(t *testing.T) {
	r := testRule(t)

	// support=0.2, coverage=0.4, confidence=0.5 for this rule
	sel := &Selector{Expression: "support >= 0.2 && confidence >= 0.5"}
	match, err := sel.Evaluate(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !match {
		t.Fatal("expected selector to match")
	}

	sel = &Selector{Expression: "support > 0.9"}
	match, err = sel.Evaluate(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match {
		t.Fatal("expected selector not to match")
	}
}

func TestSelector_CompileError(t *testing.T) {
	sel := &Selector{Expression: "support >"}
	if _, err := sel.Evaluate(testRule(t)); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestSelector_NonBooleanExpression(t *testing.T) {
	// Without a typed environment the numeric result only surfaces when the
	// program runs, not at compile time
	sel := &Selector{Expression: "support + confidence"}
	if _, err := sel.Evaluate(testRule(t)); err == nil {
		t.Fatal("expected error for non-boolean selector")
	}
}

func TestFitnessExpr_Evaluate(t *testing.T) {
	r := testRule(t)

	fit := &FitnessExpr{Expression: "(support + confidence) / 2"}
	v, err := fit.Evaluate(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (r.Support() + r.Confidence()) / 2
	if v != want {
		t.Fatalf("expected fitness %v, got %v", want, v)
	}
}

func TestFitnessExpr_NonNumericResult(t *testing.T) {
	fit := &FitnessExpr{Expression: `"not a number"`}
	if _, err := fit.Evaluate(testRule(t)); err == nil {
		t.Fatal("expected error for non-numeric fitness result")
	}
}

func TestMetricEnv(t *testing.T) {
	r := testRule(t)
	env := MetricEnv(r)

	for _, name := range mining.MetricNames {
		if _, ok := env[name]; !ok {
			t.Fatalf("metric %s missing from environment", name)
		}
	}
	if env["antecedent_length"] != 1 || env["consequent_length"] != 1 {
		t.Fatalf("unexpected lengths in environment: %+v", env)
	}
	if env["num_transactions"] != 10 {
		t.Fatalf("expected num_transactions 10, got %v", env["num_transactions"])
	}
}
