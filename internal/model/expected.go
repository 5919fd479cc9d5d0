package model

import (
	"fmt"
	"sort"
	"strings"
)

// ExpectedRow is a reference percentage per height category.
type ExpectedRow [NumCategories]float64

// ExpectedTable maps regions to their reference distributions. It is
// immutable once built; accessors return copies.
type ExpectedTable struct {
	rows    map[string]ExpectedRow
	regions []string
}

// NewExpectedTable builds a table from rows in the given region order.
// Region names must be unique ignoring case.
func NewExpectedTable(regions []string, rows map[string]ExpectedRow) (*ExpectedTable, error) {
	t := &ExpectedTable{rows: make(map[string]ExpectedRow, len(rows))}
	seen := make(map[string]bool, len(regions))
	for _, region := range regions {
		key := strings.ToLower(strings.TrimSpace(region))
		if key == "" {
			return nil, fmt.Errorf("expected table: empty region name")
		}
		if seen[key] {
			return nil, fmt.Errorf("expected table: duplicate region %q", region)
		}
		row, ok := rows[region]
		if !ok {
			return nil, fmt.Errorf("expected table: no values for region %q", region)
		}
		seen[key] = true
		t.regions = append(t.regions, region)
		t.rows[key] = row
	}
	if len(rows) != len(regions) {
		extra := make([]string, 0)
		for name := range rows {
			if !seen[strings.ToLower(strings.TrimSpace(name))] {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return nil, fmt.Errorf("expected table: regions %v missing from order", extra)
	}
	return t, nil
}

// Regions returns the region names in table order.
func (t *ExpectedTable) Regions() []string {
	out := make([]string, len(t.regions))
	copy(out, t.regions)
	return out
}

// Lookup finds the row for region, matching case-insensitively. The
// canonical region name is returned with it.
func (t *ExpectedTable) Lookup(region string) (string, ExpectedRow, bool) {
	key := strings.ToLower(strings.TrimSpace(region))
	row, ok := t.rows[key]
	if !ok {
		return "", ExpectedRow{}, false
	}
	for _, name := range t.regions {
		if strings.ToLower(name) == key {
			return name, row, true
		}
	}
	return region, row, true
}

// Mean averages every region's row per category with equal weight,
// independent of group sizes.
func (t *ExpectedTable) Mean() ExpectedRow {
	var mean ExpectedRow
	if len(t.regions) == 0 {
		return mean
	}
	for _, region := range t.regions {
		row := t.rows[strings.ToLower(strings.TrimSpace(region))]
		for i, v := range row {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(t.regions))
	}
	return mean
}
