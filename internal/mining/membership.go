package mining

import (
	"fmt"

	"github.com/HlisTilen/NiaARM/internal/dataset"
)

// Matches computes the boolean mask of transactions satisfying every
// condition. The mask starts all-true (an empty condition set matches every
// transaction) and is AND-folded one condition at a time. Continuous
// conditions are inclusive on both interval bounds; categorical conditions
// require exact equality with the pinned category. Pure: neither the table
// nor the conditions are mutated.
func Matches(data *dataset.Dataset, conditions []Attribute) ([]bool, error) {
	mask := make([]bool, data.Rows())
	for i := range mask {
		mask[i] = true
	}

	for _, cond := range conditions {
		if err := cond.Validate(); err != nil {
			return nil, err
		}
		col, ok := data.Column(cond.Name)
		if !ok {
			return nil, fmt.Errorf("column %s not found", cond.Name)
		}

		switch cond.DType {
		case Continuous:
			if !col.Continuous {
				return nil, fmt.Errorf("column %s is not continuous", cond.Name)
			}
			for i, v := range col.Numbers {
				if mask[i] {
					// NaN (missing value) fails both comparisons
					mask[i] = v >= cond.MinVal && v <= cond.MaxVal
				}
			}
		case Categorical:
			if col.Continuous {
				// a label never equals a numeric cell
				for i := range mask {
					mask[i] = false
				}
				continue
			}
			want := cond.Categories[0]
			for i, l := range col.Labels {
				if mask[i] {
					mask[i] = l == want
				}
			}
		}
	}

	return mask, nil
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}
