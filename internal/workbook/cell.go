package workbook

import "strconv"

// cellValue writes integers as numbers so numeric columns stay numeric
// in the saved workbook; everything else is written as text.
func cellValue(v string) any {
	if v == "" {
		return nil
	}
	if n, err := strconv.Atoi(v); err == nil && strconv.Itoa(n) == v {
		return n
	}
	return v
}
