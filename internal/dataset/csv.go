package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// LoadCSV reads a transaction table from CSV. The first record is the header.
// A column whose every non-empty cell parses as a number is inferred as
// continuous; anything else is categorical. Empty cells in a continuous
// column become NaN, which no range condition matches.
func LoadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no transactions")
	}

	cells := make([][]string, len(header))
	for i := range cells {
		cells[i] = make([]string, len(records))
	}
	for rowIdx, rec := range records {
		// csv.Reader already rejects ragged records
		for colIdx, v := range rec {
			cells[colIdx][rowIdx] = strings.TrimSpace(v)
		}
	}

	columns := make([]*Column, len(header))
	for i, name := range header {
		columns[i] = inferColumn(strings.TrimSpace(name), cells[i])
	}

	return New(columns...)
}

// inferColumn decides whether raw cells form a continuous or a categorical
// column and builds the typed storage.
func inferColumn(name string, raw []string) *Column {
	numbers := make([]float64, len(raw))
	numeric := false
	for i, cell := range raw {
		if cell == "" {
			numbers[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return &Column{Name: name, Labels: raw}
		}
		numbers[i] = v
		numeric = true
	}
	if !numeric {
		// all cells empty; treat as categorical rather than an all-NaN column
		return &Column{Name: name, Labels: raw}
	}
	return &Column{Name: name, Continuous: true, Numbers: numbers}
}
