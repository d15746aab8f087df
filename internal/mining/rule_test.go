package mining

import (
	"math"
	"testing"

	"github.com/HlisTilen/NiaARM/internal/dataset"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

// The reference fixture: 10 transactions, 4 match the antecedent
// (color=red), 5 match the consequent (temp in [10, 20]), 2 match both.
func referenceRule(t *testing.T) *Rule {
	t.Helper()
	r, err := NewRule(
		[]Attribute{Category("color", "red")},
		[]Attribute{Interval("temp", 10, 20)},
		testTable(t),
	)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}
	return r
}

func TestRule_CachedCounts(t *testing.T) {
	r := referenceRule(t)

	if r.NumTransactions() != 10 {
		t.Fatalf("expected 10 transactions, got %d", r.NumTransactions())
	}
	if r.AntecedentCount() != 4 {
		t.Fatalf("expected antecedent count 4, got %d", r.AntecedentCount())
	}
	if r.ConsequentCount() != 5 {
		t.Fatalf("expected consequent count 5, got %d", r.ConsequentCount())
	}
	if r.FullCount() != 2 {
		t.Fatalf("expected full count 2, got %d", r.FullCount())
	}
}

func TestRule_BasicMetrics(t *testing.T) {
	r := referenceRule(t)

	if r.Support() != 0.2 {
		t.Fatalf("expected support 0.2, got %v", r.Support())
	}
	if r.Coverage() != 0.4 {
		t.Fatalf("expected coverage 0.4, got %v", r.Coverage())
	}
	if r.RHSSupport() != 0.5 {
		t.Fatalf("expected rhs_support 0.5, got %v", r.RHSSupport())
	}
	if r.Confidence() != 0.5 {
		t.Fatalf("expected confidence 0.5, got %v", r.Confidence())
	}
	if r.Lift() != 1.0 {
		t.Fatalf("expected lift 1.0, got %v", r.Lift())
	}
}

func TestRule_SupportBounds(t *testing.T) {
	r := referenceRule(t)

	if r.Support() < 0 || r.Support() > r.Coverage() || r.Coverage() > 1 {
		t.Fatalf("want 0 <= support <= coverage <= 1, got support=%v coverage=%v", r.Support(), r.Coverage())
	}
	if r.Support() > r.RHSSupport() || r.RHSSupport() > 1 {
		t.Fatalf("want support <= rhs_support <= 1, got support=%v rhs_support=%v", r.Support(), r.RHSSupport())
	}
}

func TestRule_ConfidenceIsSupportOverCoverage(t *testing.T) {
	r := referenceRule(t)

	if !almostEqual(r.Confidence(), r.Support()/r.Coverage()) {
		t.Fatalf("confidence %v != support/coverage %v", r.Confidence(), r.Support()/r.Coverage())
	}
}

func TestRule_Inclusion(t *testing.T) {
	// Inclusion depends only on condition-set sizes and the column count,
	// never on the data: 2 conditions over 2 columns.
	r := referenceRule(t)
	if r.Inclusion() != 1.0 {
		t.Fatalf("expected inclusion 1.0, got %v", r.Inclusion())
	}
}

func TestRule_Amplitude(t *testing.T) {
	// temp spans [0, 40] dataset-wide. The categorical antecedent adds
	// nothing to the accumulator but still counts in the divisor:
	// amplitude = 1 - ((20-10)/40)/2 = 0.875.
	d, err := dataset.New(
		&dataset.Column{Name: "color", Labels: []string{"red", "blue", "red", "green"}},
		&dataset.Column{Name: "temp", Continuous: true, Numbers: []float64{0, 12, 26, 40}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}

	r, err := NewRule(
		[]Attribute{Category("color", "red")},
		[]Attribute{Interval("temp", 10, 20)},
		d,
	)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}
	if !almostEqual(r.Amplitude(), 0.875) {
		t.Fatalf("expected amplitude 0.875, got %v", r.Amplitude())
	}
}

func TestRule_MetricIdempotence(t *testing.T) {
	r := referenceRule(t)

	// Accessors derive from a cached snapshot; repeated reads must be
	// bit-identical.
	first := r.Metrics()
	for i := 0; i < 3; i++ {
		again := r.Metrics()
		for name, v := range first {
			if math.Float64bits(again[name]) != math.Float64bits(v) {
				t.Fatalf("metric %s drifted: %v != %v", name, again[name], v)
			}
		}
	}
}

func TestRule_MetricsMapCoversAllNames(t *testing.T) {
	m := referenceRule(t).Metrics()
	if len(m) != len(MetricNames) {
		t.Fatalf("expected %d metrics, got %d", len(MetricNames), len(m))
	}
	for _, name := range MetricNames {
		if _, ok := m[name]; !ok {
			t.Fatalf("metric %s missing from Metrics()", name)
		}
	}
}

func TestRule_PerfectRule(t *testing.T) {
	// Antecedent and consequent always co-occur: confidence is exactly 1 and
	// conviction stays finite thanks to the stabilized denominator.
	d, err := dataset.New(
		&dataset.Column{Name: "color", Labels: []string{"red", "red", "red"}},
		&dataset.Column{Name: "temp", Continuous: true, Numbers: []float64{10, 20, 30}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}

	r, err := NewRule(
		[]Attribute{Category("color", "red")},
		[]Attribute{Interval("temp", 10, 30)},
		d,
	)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}

	if r.Confidence() != 1.0 {
		t.Fatalf("expected confidence 1.0, got %v", r.Confidence())
	}
	conviction := r.Conviction()
	if math.IsInf(conviction, 0) || math.IsNaN(conviction) {
		t.Fatalf("expected finite conviction, got %v", conviction)
	}
}

func TestRule_ZeroCoverage(t *testing.T) {
	r, err := NewRule(
		[]Attribute{Category("color", "purple")},
		[]Attribute{Interval("temp", 10, 20)},
		testTable(t),
	)
	if err != nil {
		t.Fatalf("build rule: %v", err)
	}

	// Nothing matches the antecedent: confidence has an exact zero guard
	if r.AntecedentCount() != 0 {
		t.Fatalf("expected antecedent count 0, got %d", r.AntecedentCount())
	}
	if r.Confidence() != 0.0 {
		t.Fatalf("expected confidence 0.0, got %v", r.Confidence())
	}

	// Lift is deliberately unguarded and goes non-finite here
	if lift := r.Lift(); !math.IsInf(lift, 0) && !math.IsNaN(lift) {
		t.Fatalf("expected non-finite lift for zero coverage, got %v", lift)
	}

	// NetConf stays finite thanks to the stabilized denominator
	if netconf := r.NetConf(); math.IsInf(netconf, 0) {
		t.Fatalf("expected finite netconf, got %v", netconf)
	}
}

func TestRule_YulesQRange(t *testing.T) {
	r := referenceRule(t)
	q := r.YulesQ()
	if q < -1 || q > 1 {
		t.Fatalf("expected yulesq in [-1, 1], got %v", q)
	}
}

func TestRule_Comprehensibility(t *testing.T) {
	r := referenceRule(t)
	want := math.Log(2) / math.Log(3)
	if !almostEqual(r.Comprehensibility(), want) {
		t.Fatalf("expected comprehensibility %v, got %v", want, r.Comprehensibility())
	}
}

func TestRule_UnknownColumnFailsConstruction(t *testing.T) {
	_, err := NewRule(
		[]Attribute{Interval("pressure", 0, 1)},
		[]Attribute{Interval("temp", 10, 20)},
		testTable(t),
	)
	if err == nil {
		t.Fatal("expected construction to fail for unknown column")
	}
}

func TestRule_NoConditionsFailsConstruction(t *testing.T) {
	// A rule with no conditions at all has no meaningful inclusion or
	// amplitude; construction must refuse it rather than cache 0/NaN
	if _, err := NewRule(nil, nil, testTable(t)); err == nil {
		t.Fatal("expected construction to fail with no conditions")
	}
}

func TestRule_FitnessDoesNotAffectMetrics(t *testing.T) {
	r := referenceRule(t)
	before := r.Support()
	r.Fitness = 42.5
	if r.Support() != before {
		t.Fatalf("fitness assignment changed support: %v != %v", r.Support(), before)
	}
}

func TestRule_String(t *testing.T) {
	r := referenceRule(t)
	want := "[color([red])] => [temp([10, 20])]"
	if r.String() != want {
		t.Fatalf("expected %q, got %q", want, r.String())
	}
}
