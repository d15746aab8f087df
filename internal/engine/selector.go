package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/HlisTilen/NiaARM/internal/mining"
)

// Selector is a boolean expression over a rule's metrics, e.g.
// "support >= 0.1 && confidence > 0.8". The caller decides what to do with
// rules the selector rejects.
type Selector struct {
	Expression string
	compiled   *vm.Program
}

// FitnessExpr is a scalar expression over a rule's metrics whose result the
// caller assigns to Rule.Fitness, e.g. "(support + confidence) / 2". This is
// the boundary an external optimizer scores candidate rules through.
type FitnessExpr struct {
	Expression string
	compiled   *vm.Program
}

// CompileSelector compiles a selector expression into an expr-lang program.
func CompileSelector(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile selector: %w", err)
	}
	return prog, nil
}

// CompileFitness compiles a fitness expression (any numeric result).
func CompileFitness(expression string) (*vm.Program, error) {
	prog, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile fitness expression: %w", err)
	}
	return prog, nil
}

// Evaluate runs the selector against a rule's metric environment, compiling
// lazily on first use.
func (s *Selector) Evaluate(r *mining.Rule) (bool, error) {
	if s.compiled == nil {
		prog, err := CompileSelector(s.Expression)
		if err != nil {
			return false, err
		}
		s.compiled = prog
	}

	result, err := expr.Run(s.compiled, MetricEnv(r))
	if err != nil {
		return false, fmt.Errorf("evaluate selector: %w", err)
	}

	match, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("selector did not evaluate to a boolean")
	}
	return match, nil
}

// Evaluate runs the fitness expression against a rule's metric environment,
// compiling lazily on first use.
func (f *FitnessExpr) Evaluate(r *mining.Rule) (float64, error) {
	if f.compiled == nil {
		prog, err := CompileFitness(f.Expression)
		if err != nil {
			return 0, err
		}
		f.compiled = prog
	}

	result, err := expr.Run(f.compiled, MetricEnv(r))
	if err != nil {
		return 0, fmt.Errorf("evaluate fitness expression: %w", err)
	}

	v, ok := toFloat64(result)
	if !ok {
		return 0, fmt.Errorf("fitness expression did not evaluate to a number, got %T", result)
	}
	return v, nil
}

// MetricEnv builds the expression environment for a rule: the twelve metrics
// by name plus a few structural values.
func MetricEnv(r *mining.Rule) map[string]any {
	env := make(map[string]any, len(mining.MetricNames)+4)
	for name, value := range r.Metrics() {
		env[name] = value
	}
	env["fitness"] = r.Fitness
	env["antecedent_length"] = len(r.Antecedent)
	env["consequent_length"] = len(r.Consequent)
	env["num_transactions"] = r.NumTransactions()
	return env
}

// toFloat64 converts numeric types to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
