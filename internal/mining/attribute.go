package mining

import (
	"fmt"
	"strconv"
	"strings"
)

// DType distinguishes the two kinds of attribute condition.
type DType string

const (
	Categorical DType = "categorical"
	Continuous  DType = "continuous"
)

// Attribute is a single condition on one dataset column: a closed numeric
// interval for continuous attributes, or a pinned category for categorical
// ones. Conditions are built by the caller (typically a rule optimizer) and
// never mutated here.
type Attribute struct {
	Name       string   `json:"name"`
	DType      DType    `json:"dtype"`
	MinVal     float64  `json:"min_val,omitempty"`
	MaxVal     float64  `json:"max_val,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// Interval builds a continuous condition restricting name to [lo, hi].
func Interval(name string, lo, hi float64) Attribute {
	return Attribute{Name: name, DType: Continuous, MinVal: lo, MaxVal: hi}
}

// Category builds a categorical condition pinning name to value.
func Category(name, value string) Attribute {
	return Attribute{Name: name, DType: Categorical, Categories: []string{value}}
}

// Validate checks the condition is well formed before any table access.
func (a Attribute) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("condition has no attribute name")
	}
	switch a.DType {
	case Continuous:
		if a.MinVal > a.MaxVal {
			return fmt.Errorf("condition on %s: min_val %v exceeds max_val %v", a.Name, a.MinVal, a.MaxVal)
		}
	case Categorical:
		if len(a.Categories) == 0 {
			return fmt.Errorf("condition on %s has no category", a.Name)
		}
	default:
		return fmt.Errorf("condition on %s has unknown dtype %q", a.Name, a.DType)
	}
	return nil
}

func (a Attribute) String() string {
	if a.DType == Categorical {
		return fmt.Sprintf("%s([%s])", a.Name, strings.Join(a.Categories, ", "))
	}
	return fmt.Sprintf("%s([%s, %s])",
		a.Name,
		strconv.FormatFloat(a.MinVal, 'g', -1, 64),
		strconv.FormatFloat(a.MaxVal, 'g', -1, 64))
}

func formatConditions(conditions []Attribute) string {
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
