package engine

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/HlisTilen/NiaARM/internal/config"
	"github.com/HlisTilen/NiaARM/internal/dataset"
	"github.com/HlisTilen/NiaARM/internal/mining"
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()

	d, err := dataset.New(
		&dataset.Column{Name: "color", Labels: []string{"red", "red", "red", "red", "blue", "blue", "green", "green", "blue", "green"}},
		&dataset.Column{Name: "temp", Continuous: true, Numbers: []float64{30, 30, 15, 15, 15, 15, 15, 5, 5, 5}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}

	reg := dataset.NewRegistry()
	reg.Put(&dataset.Entry{Info: dataset.Info{ID: "ds-1", Name: "weather"}, Data: d})

	cfg := &config.Config{}
	cfg.Evaluation.Workers = 2
	cfg.Evaluation.MaxBatchSize = 10

	h := NewHandler(nil, reg, nil, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if appErr, ok := err.(*AppError); ok {
				return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		},
	})
	RegisterRoutes(app, h)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest("POST", path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func TestEvaluateRule_Handler(t *testing.T) {
	app := testApp(t)

	resp, body := postJSON(t, app, "/api/datasets/ds-1/rules", `{
		"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["red"]}],
		"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}],
		"selector": "lift >= 1.0",
		"fitness": "support * 2"
	}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}

	data, _ := body["data"].(map[string]any)
	metrics, _ := data["metrics"].(map[string]any)
	if metrics["support"] != 0.2 {
		t.Fatalf("expected support 0.2, got %v", metrics["support"])
	}
	if metrics["confidence"] != 0.5 {
		t.Fatalf("expected confidence 0.5, got %v", metrics["confidence"])
	}
	if data["fitness"] != 0.4 {
		t.Fatalf("expected fitness 0.4, got %v", data["fitness"])
	}
	if data["selected"] != true {
		t.Fatalf("expected selected=true, got %v", data["selected"])
	}
	if data["rule"] != "[color([red])] => [temp([10, 20])]" {
		t.Fatalf("unexpected rule string %v", data["rule"])
	}
}

func TestEvaluateRule_UnknownDataset(t *testing.T) {
	app := testApp(t)

	resp, _ := postJSON(t, app, "/api/datasets/nope/rules", `{
		"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["red"]}],
		"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}]
	}`)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestEvaluateRule_ValidationFailures(t *testing.T) {
	app := testApp(t)

	// Empty consequent
	resp, _ := postJSON(t, app, "/api/datasets/ds-1/rules", `{
		"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["red"]}],
		"consequent": []
	}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for empty consequent, got %d", resp.StatusCode)
	}

	// Same attribute on both sides
	resp, _ = postJSON(t, app, "/api/datasets/ds-1/rules", `{
		"antecedent": [{"name": "temp", "dtype": "continuous", "min_val": 0, "max_val": 10}],
		"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}]
	}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for overlapping attribute, got %d", resp.StatusCode)
	}

	// Unknown column surfaces as a failed construction
	resp, _ = postJSON(t, app, "/api/datasets/ds-1/rules", `{
		"antecedent": [{"name": "pressure", "dtype": "continuous", "min_val": 0, "max_val": 1}],
		"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}]
	}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for unknown column, got %d", resp.StatusCode)
	}

	// Bad selector expression
	resp, _ = postJSON(t, app, "/api/datasets/ds-1/rules", `{
		"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["red"]}],
		"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}],
		"selector": "support >"
	}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for bad selector, got %d", resp.StatusCode)
	}
}

func TestEvaluateBatch_Handler(t *testing.T) {
	app := testApp(t)

	resp, body := postJSON(t, app, "/api/datasets/ds-1/rules/batch", `{
		"candidates": [
			{
				"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["red"]}],
				"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}]
			},
			{
				"antecedent": [{"name": "pressure", "dtype": "continuous", "min_val": 0, "max_val": 1}],
				"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 10, "max_val": 20}]
			},
			{
				"antecedent": [{"name": "color", "dtype": "categorical", "categories": ["blue"]}],
				"consequent": [{"name": "temp", "dtype": "continuous", "min_val": 0, "max_val": 40}]
			}
		],
		"selector": "support >= 0.2"
	}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}

	meta, _ := body["meta"].(map[string]any)
	if meta["total"] != float64(3) || meta["succeeded"] != float64(2) || meta["failed"] != float64(1) {
		t.Fatalf("unexpected meta %v", meta)
	}

	// Results preserve candidate order; the failed candidate reports only
	// its own error
	items, _ := body["data"].([]any)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	second, _ := items[1].(map[string]any)
	if second["error"] == nil || second["error"] == "" {
		t.Fatalf("expected error on second candidate, got %v", second)
	}
	first, _ := items[0].(map[string]any)
	if first["error"] != nil {
		t.Fatalf("expected first candidate to succeed, got %v", first["error"])
	}
}

func TestEvaluateBatch_Limits(t *testing.T) {
	app := testApp(t)

	resp, _ := postJSON(t, app, "/api/datasets/ds-1/rules/batch", `{"candidates": []}`)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for empty batch, got %d", resp.StatusCode)
	}
}

func TestValidateCandidate(t *testing.T) {
	// Structural checks run before any table access
	details := validateCandidate(Candidate{})
	if len(details) != 2 {
		t.Fatalf("expected 2 details for empty candidate, got %v", details)
	}

	details = validateCandidate(Candidate{
		Antecedent: []mining.Attribute{mining.Interval("temp", 20, 10)},
		Consequent: []mining.Attribute{mining.Category("color", "red")},
	})
	if len(details) != 1 {
		t.Fatalf("expected 1 detail for inverted interval, got %v", details)
	}
}
