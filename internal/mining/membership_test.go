package mining

import (
	"testing"

	"github.com/HlisTilen/NiaARM/internal/dataset"
)

func testTable(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New(
		&dataset.Column{Name: "color", Labels: []string{"red", "red", "red", "red", "blue", "blue", "green", "green", "blue", "green"}},
		&dataset.Column{Name: "temp", Continuous: true, Numbers: []float64{30, 30, 15, 15, 15, 15, 15, 5, 5, 5}},
	)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return d
}

func TestMatches_EmptyConditions(t *testing.T) {
	d := testTable(t)

	// Vacuous truth: no conditions means every transaction matches
	mask, err := Matches(d, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countTrue(mask) != d.Rows() {
		t.Fatalf("expected all %d rows true, got %d", d.Rows(), countTrue(mask))
	}
}

func TestMatches_CategoricalExact(t *testing.T) {
	d := testTable(t)

	mask, err := Matches(d, []Attribute{Category("color", "red")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countTrue(mask) != 4 {
		t.Fatalf("expected 4 red rows, got %d", countTrue(mask))
	}

	// No partial matching
	mask, err = Matches(d, []Attribute{Category("color", "re")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countTrue(mask) != 0 {
		t.Fatalf("expected 0 rows for partial label, got %d", countTrue(mask))
	}
}

func TestMatches_ContinuousInclusiveBounds(t *testing.T) {
	d := testTable(t)

	// Values exactly at either bound satisfy the condition
	mask, err := Matches(d, []Attribute{Interval("temp", 15, 30)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countTrue(mask) != 7 {
		t.Fatalf("expected 7 rows in [15, 30], got %d", countTrue(mask))
	}

	// Degenerate interval [v, v] matches exactly v
	mask, err = Matches(d, []Attribute{Interval("temp", 5, 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countTrue(mask) != 3 {
		t.Fatalf("expected 3 rows at temp=5, got %d", countTrue(mask))
	}
}

func TestMatches_ConditionsAreANDed(t *testing.T) {
	d := testTable(t)

	mask, err := Matches(d, []Attribute{
		Category("color", "red"),
		Interval("temp", 10, 20),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// red rows are 0-3, temp in [10,20] are rows 2-6; intersection is rows 2,3
	if countTrue(mask) != 2 {
		t.Fatalf("expected 2 rows matching both conditions, got %d", countTrue(mask))
	}
}

func TestMatches_UnknownColumn(t *testing.T) {
	d := testTable(t)

	if _, err := Matches(d, []Attribute{Interval("pressure", 0, 1)}); err == nil {
		t.Fatal("expected lookup failure for unknown column")
	}
	if _, err := Matches(d, []Attribute{Category("pressure", "high")}); err == nil {
		t.Fatal("expected lookup failure for unknown column")
	}
}

func TestMatches_ContinuousConditionOnCategoricalColumn(t *testing.T) {
	d := testTable(t)

	if _, err := Matches(d, []Attribute{Interval("color", 0, 1)}); err == nil {
		t.Fatal("expected error for range condition on categorical column")
	}
}

func TestMatches_InvalidCondition(t *testing.T) {
	d := testTable(t)

	// min above max
	if _, err := Matches(d, []Attribute{Interval("temp", 20, 10)}); err == nil {
		t.Fatal("expected error for inverted interval")
	}
	// categorical without a category
	if _, err := Matches(d, []Attribute{{Name: "color", DType: Categorical}}); err == nil {
		t.Fatal("expected error for empty category list")
	}
}
