package dataset

import (
	"fmt"
	"math"
	"sort"
)

// Column is one attribute of the transaction table. Continuous columns hold
// their values in Numbers, categorical columns in Labels; the other slice is
// nil. Min and Max are dataset-wide statistics computed once at load and are
// only meaningful for continuous columns.
type Column struct {
	Name       string
	Continuous bool
	Numbers    []float64
	Labels     []string
	Min        float64
	Max        float64
}

// Len returns the number of transactions in the column.
func (c *Column) Len() int {
	if c.Continuous {
		return len(c.Numbers)
	}
	return len(c.Labels)
}

// Categories returns the distinct labels of a categorical column, sorted.
func (c *Column) Categories() []string {
	seen := make(map[string]bool, len(c.Labels))
	var cats []string
	for _, l := range c.Labels {
		if !seen[l] {
			seen[l] = true
			cats = append(cats, l)
		}
	}
	sort.Strings(cats)
	return cats
}

// Dataset is an immutable transaction table with named columns. All columns
// have the same length. Safe for concurrent readers; nothing is mutated
// after construction.
type Dataset struct {
	columns []*Column
	byName  map[string]*Column
	rows    int
}

// New builds a Dataset from columns. All columns must have equal length and
// distinct names.
func New(columns ...*Column) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}
	d := &Dataset{
		columns: columns,
		byName:  make(map[string]*Column, len(columns)),
		rows:    columns[0].Len(),
	}
	for _, col := range columns {
		if col.Len() != d.rows {
			return nil, fmt.Errorf("column %s has %d rows, want %d", col.Name, col.Len(), d.rows)
		}
		if _, ok := d.byName[col.Name]; ok {
			return nil, fmt.Errorf("duplicate column %s", col.Name)
		}
		if col.Continuous {
			col.Min, col.Max = minMax(col.Numbers)
		}
		d.byName[col.Name] = col
	}
	return d, nil
}

// Rows returns the number of transactions.
func (d *Dataset) Rows() int { return d.rows }

// ColumnCount returns the number of attributes.
func (d *Dataset) ColumnCount() int { return len(d.columns) }

// Columns returns the columns in table order.
func (d *Dataset) Columns() []*Column { return d.columns }

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	col, ok := d.byName[name]
	return col, ok
}

// Stats returns the dataset-wide min and max of a continuous column. An
// unknown or categorical name is a lookup failure.
func (d *Dataset) Stats(name string) (min, max float64, err error) {
	col, ok := d.byName[name]
	if !ok {
		return 0, 0, fmt.Errorf("column %s not found", name)
	}
	if !col.Continuous {
		return 0, 0, fmt.Errorf("column %s is not continuous", name)
	}
	return col.Min, col.Max, nil
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
