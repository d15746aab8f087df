package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/HlisTilen/NiaARM/internal/dataset"
	"github.com/HlisTilen/NiaARM/internal/instrument"
	"github.com/HlisTilen/NiaARM/internal/mining"
)

// Candidate is one proposed rule: an antecedent and a consequent condition set.
type Candidate struct {
	Antecedent []mining.Attribute `json:"antecedent"`
	Consequent []mining.Attribute `json:"consequent"`
}

// RuleRequest evaluates a single candidate, optionally filtered by a
// selector expression and scored by a fitness expression.
type RuleRequest struct {
	Candidate
	Selector string `json:"selector,omitempty"`
	Fitness  string `json:"fitness,omitempty"`
}

// BatchRequest evaluates many candidates against the same dataset. Selector
// and fitness expressions apply to every candidate.
type BatchRequest struct {
	Candidates []Candidate `json:"candidates"`
	Selector   string      `json:"selector,omitempty"`
	Fitness    string      `json:"fitness,omitempty"`
}

// RuleResult is the evaluation outcome for one candidate. Metric values are
// any because lift and interestingness can legitimately be non-finite, which
// encoding/json cannot represent; those come back as null.
type RuleResult struct {
	Rule       string             `json:"rule"`
	Antecedent []mining.Attribute `json:"antecedent"`
	Consequent []mining.Attribute `json:"consequent"`
	Fitness    float64            `json:"fitness"`
	Metrics    map[string]any     `json:"metrics"`
	Selected   *bool              `json:"selected,omitempty"`
}

// sanitizeMetrics maps non-finite metric values to null for JSON transport.
func sanitizeMetrics(metrics map[string]float64) map[string]any {
	out := make(map[string]any, len(metrics))
	for name, v := range metrics {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			out[name] = nil
			continue
		}
		out[name] = v
	}
	return out
}

// BatchItem pairs a candidate index with its result or failure. A failed
// candidate discards only itself; the rest of the batch proceeds.
type BatchItem struct {
	Index  int         `json:"index"`
	Result *RuleResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// compileExpressions compiles the optional selector and fitness expressions
// up front, so batch workers can share the programs without racing on lazy
// compilation.
func compileExpressions(selector, fitness string) (*Selector, *FitnessExpr, *AppError) {
	var sel *Selector
	var fit *FitnessExpr

	if selector != "" {
		prog, err := CompileSelector(selector)
		if err != nil {
			return nil, nil, ValidationError([]ErrorDetail{{Field: "selector", Message: err.Error()}})
		}
		sel = &Selector{Expression: selector, compiled: prog}
	}
	if fitness != "" {
		prog, err := CompileFitness(fitness)
		if err != nil {
			return nil, nil, ValidationError([]ErrorDetail{{Field: "fitness", Message: err.Error()}})
		}
		fit = &FitnessExpr{Expression: fitness, compiled: prog}
	}
	return sel, fit, nil
}

// validateCandidate checks structural invariants before touching the table:
// both sides non-empty, every condition well formed, and no attribute shared
// between antecedent and consequent.
func validateCandidate(cand Candidate) []ErrorDetail {
	var details []ErrorDetail
	if len(cand.Antecedent) == 0 {
		details = append(details, ErrorDetail{Field: "antecedent", Message: "must not be empty"})
	}
	if len(cand.Consequent) == 0 {
		details = append(details, ErrorDetail{Field: "consequent", Message: "must not be empty"})
	}

	names := make(map[string]bool, len(cand.Antecedent))
	for _, a := range cand.Antecedent {
		if err := a.Validate(); err != nil {
			details = append(details, ErrorDetail{Field: "antecedent", Message: err.Error()})
		}
		names[a.Name] = true
	}
	for _, a := range cand.Consequent {
		if err := a.Validate(); err != nil {
			details = append(details, ErrorDetail{Field: "consequent", Message: err.Error()})
		}
		if names[a.Name] {
			details = append(details, ErrorDetail{
				Field:   "consequent",
				Message: fmt.Sprintf("attribute %s appears on both sides", a.Name),
			})
		}
	}
	return details
}

// evaluateCandidate builds the rule and applies the optional expressions.
// Safe to call concurrently for the same dataset: the table is read-only and
// the compiled programs are shared immutably.
func evaluateCandidate(data *dataset.Dataset, cand Candidate, sel *Selector, fit *FitnessExpr) (*RuleResult, *AppError) {
	if details := validateCandidate(cand); len(details) > 0 {
		return nil, ValidationError(details)
	}

	r, err := mining.NewRule(cand.Antecedent, cand.Consequent, data)
	if err != nil {
		return nil, NewAppError("EVALUATION_FAILED", 422, err.Error())
	}

	if fit != nil {
		v, err := fit.Evaluate(r)
		if err != nil {
			return nil, NewAppError("EXPRESSION_FAILED", 422, err.Error())
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, NewAppError("EXPRESSION_FAILED", 422, "fitness expression produced a non-finite value")
		}
		r.Fitness = v
	}

	result := &RuleResult{
		Rule:       r.String(),
		Antecedent: r.Antecedent,
		Consequent: r.Consequent,
		Fitness:    r.Fitness,
		Metrics:    sanitizeMetrics(r.Metrics()),
	}

	if sel != nil {
		match, err := sel.Evaluate(r)
		if err != nil {
			return nil, NewAppError("EXPRESSION_FAILED", 422, err.Error())
		}
		result.Selected = &match
	}
	return result, nil
}

// EvaluateBatch handles POST /api/datasets/:id/rules/batch: evaluate many
// candidates concurrently over the shared read-only table.
func (h *Handler) EvaluateBatch(c *fiber.Ctx) error {
	entry := h.registry.Get(c.Params("id"))
	if entry == nil {
		return NotFoundError("dataset", c.Params("id"))
	}

	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return NewAppError("INVALID_PAYLOAD", 400, "Invalid JSON body")
	}
	if len(req.Candidates) == 0 {
		return ValidationError([]ErrorDetail{{Field: "candidates", Message: "must not be empty"}})
	}
	if h.maxBatch > 0 && len(req.Candidates) > h.maxBatch {
		return ValidationError([]ErrorDetail{{
			Field:   "candidates",
			Message: fmt.Sprintf("batch size %d exceeds limit %d", len(req.Candidates), h.maxBatch),
		}})
	}

	sel, fit, appErr := compileExpressions(req.Selector, req.Fitness)
	if appErr != nil {
		return appErr
	}

	_, span := instrument.GetInstrumenter(c.UserContext()).StartSpan(c.UserContext(), "engine", "mining", "rule.evaluate_batch")
	defer span.End()
	span.SetEntity("dataset", entry.Info.ID)
	span.SetMetadata("candidates", len(req.Candidates))

	items := make([]BatchItem, len(req.Candidates))
	jobs := make(chan int)

	workers := h.workers
	if workers > len(req.Candidates) {
		workers = len(req.Candidates)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, appErr := evaluateCandidate(entry.Data, req.Candidates[i], sel, fit)
				item := BatchItem{Index: i, Result: result}
				if appErr != nil {
					item.Error = flattenAppError(appErr)
				}
				items[i] = item
			}
		}()
	}
	for i := range req.Candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	succeeded := 0
	for _, item := range items {
		if item.Error == "" {
			succeeded++
		}
	}
	if succeeded < len(items) {
		span.SetStatus("partial")
	} else {
		span.SetStatus("ok")
	}

	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{
			"total":     len(items),
			"succeeded": succeeded,
			"failed":    len(items) - succeeded,
		},
	})
}

func flattenAppError(appErr *AppError) string {
	msg := appErr.Message
	for _, d := range appErr.Details {
		if d.Field != "" {
			msg += fmt.Sprintf("; %s: %s", d.Field, d.Message)
		} else {
			msg += "; " + d.Message
		}
	}
	return msg
}
