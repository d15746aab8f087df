package mining

import (
	"fmt"
	"math"

	"github.com/HlisTilen/NiaARM/internal/dataset"
)

// eps keeps metric denominators that legitimately vanish (perfect rules,
// zero-coverage antecedents) finite instead of raising. Machine epsilon for
// float64.
const eps = 2.220446049250313e-16

// MetricNames lists every available interestingness metric.
var MetricNames = []string{
	"support", "confidence", "lift", "coverage", "rhs_support", "conviction",
	"amplitude", "inclusion", "interestingness", "comprehensibility",
	"netconf", "yulesq",
}

// Rule is a candidate association rule evaluated against one transaction
// table. Construction scans the table once and caches the antecedent,
// consequent and joint match counts plus two normalization scalars; every
// metric accessor is then O(1) and derived from that single snapshot, so
// repeated reads are bit-identical. Immutable after construction except for
// Fitness, which the external optimizer assigns and which plays no part in
// any metric.
type Rule struct {
	Antecedent []Attribute
	Consequent []Attribute
	Fitness    float64

	numTransactions int
	antecedentCount int
	consequentCount int
	fullCount       int
	inclusion       float64
	amplitude       float64
}

// NewRule evaluates antecedent and consequent against the table and returns
// the rule with its cached counts. A continuous condition naming a column
// absent from the table (or a non-numeric one) fails the whole construction,
// as do two empty condition sets (inclusion and amplitude would degenerate);
// no partial rule is produced.
func NewRule(antecedent, consequent []Attribute, data *dataset.Dataset) (*Rule, error) {
	r := &Rule{
		Antecedent:      antecedent,
		Consequent:      consequent,
		numTransactions: data.Rows(),
	}

	length := len(antecedent) + len(consequent)
	if length == 0 {
		return nil, fmt.Errorf("rule construction: no conditions")
	}
	r.inclusion = float64(length) / float64(data.ColumnCount())

	// Amplitude accumulator: each continuous condition contributes its range
	// width normalized by the column's dataset-wide spread; categorical
	// conditions contribute nothing to the sum but still count in the
	// divisor below.
	acc := 0.0
	for _, side := range [][]Attribute{antecedent, consequent} {
		for _, cond := range side {
			if cond.DType != Continuous {
				continue
			}
			lo, hi, err := data.Stats(cond.Name)
			if err != nil {
				return nil, fmt.Errorf("rule construction: %w", err)
			}
			acc += (cond.MaxVal - cond.MinVal) / (hi - lo)
		}
	}
	r.amplitude = 1 - acc/float64(length)

	antecedentMask, err := Matches(data, antecedent)
	if err != nil {
		return nil, fmt.Errorf("rule construction: %w", err)
	}
	r.antecedentCount = countTrue(antecedentMask)

	consequentMask, err := Matches(data, consequent)
	if err != nil {
		return nil, fmt.Errorf("rule construction: %w", err)
	}
	r.consequentCount = countTrue(consequentMask)

	for i := range antecedentMask {
		if antecedentMask[i] && consequentMask[i] {
			r.fullCount++
		}
	}

	return r, nil
}

// NumTransactions returns the row count of the table the rule was built on.
func (r *Rule) NumTransactions() int { return r.numTransactions }

// AntecedentCount returns the number of transactions matching the antecedent.
func (r *Rule) AntecedentCount() int { return r.antecedentCount }

// ConsequentCount returns the number of transactions matching the consequent.
func (r *Rule) ConsequentCount() int { return r.consequentCount }

// FullCount returns the number of transactions matching both sides.
func (r *Rule) FullCount() int { return r.fullCount }

// Support is the proportion of transactions matching both sides.
func (r *Rule) Support() float64 {
	return float64(r.fullCount) / float64(r.numTransactions)
}

// Coverage is the antecedent support.
func (r *Rule) Coverage() float64 {
	return float64(r.antecedentCount) / float64(r.numTransactions)
}

// RHSSupport is the consequent support.
func (r *Rule) RHSSupport() float64 {
	return float64(r.consequentCount) / float64(r.numTransactions)
}

// Confidence is the proportion of antecedent-matching transactions that also
// match the consequent, 0 when nothing matches the antecedent.
func (r *Rule) Confidence() float64 {
	if r.antecedentCount == 0 {
		return 0.0
	}
	return float64(r.fullCount) / float64(r.antecedentCount)
}

// Lift measures how much more often both sides occur together than expected
// under independence. Not guarded: zero coverage or rhs support yields a
// non-finite value.
func (r *Rule) Lift() float64 {
	return r.Support() / (r.Coverage() * r.RHSSupport())
}

// Conviction of the rule.
func (r *Rule) Conviction() float64 {
	return (1 - r.RHSSupport()) / (1 - r.Confidence() + eps)
}

// Interestingness of the rule. Like Lift, not guarded against zero coverage
// or rhs support.
func (r *Rule) Interestingness() float64 {
	support := r.Support()
	return (support / r.RHSSupport()) * (support / r.Coverage()) *
		(1 - support/float64(r.numTransactions))
}

// Comprehensibility favors rules with few consequent conditions.
func (r *Rule) Comprehensibility() float64 {
	return math.Log(1+float64(len(r.Consequent))) /
		math.Log(1+float64(len(r.Antecedent)+len(r.Consequent)))
}

// Inclusion is the fraction of dataset columns the rule references.
func (r *Rule) Inclusion() float64 { return r.inclusion }

// Amplitude is the normalized average interval width over the rule's
// conditions, inverted so tighter intervals score higher.
func (r *Rule) Amplitude() float64 { return r.amplitude }

// NetConf evaluates the rule by the deviation of its support from the
// support expected under independence, normalized by coverage.
func (r *Rule) NetConf() float64 {
	support := r.Support()
	coverage := r.Coverage()
	return (support - coverage*r.RHSSupport()) / (coverage * (1 - coverage + eps))
}

// YulesQ is Yule's Q, an odds-ratio based association measure in [-1, 1].
func (r *Rule) YulesQ() float64 {
	num := float64(r.fullCount * (r.numTransactions - r.fullCount))
	den := float64((r.fullCount - r.consequentCount) * (r.fullCount - r.antecedentCount))
	oddsRatio := num / (den + eps)
	return (oddsRatio - 1) / (oddsRatio + 1)
}

// Metrics returns all twelve metrics keyed by name, in no particular order.
func (r *Rule) Metrics() map[string]float64 {
	return map[string]float64{
		"support":           r.Support(),
		"confidence":        r.Confidence(),
		"lift":              r.Lift(),
		"coverage":          r.Coverage(),
		"rhs_support":       r.RHSSupport(),
		"conviction":        r.Conviction(),
		"amplitude":         r.Amplitude(),
		"inclusion":         r.Inclusion(),
		"interestingness":   r.Interestingness(),
		"comprehensibility": r.Comprehensibility(),
		"netconf":           r.NetConf(),
		"yulesq":            r.YulesQ(),
	}
}

func (r *Rule) String() string {
	return formatConditions(r.Antecedent) + " => " + formatConditions(r.Consequent)
}
