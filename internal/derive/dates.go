// Package derive computes permit durations and completion status from
// date columns, and trims sheets to plausible durations.
package derive

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06",
	"01-02-06",
	"01-02-2006",
}

// Excel serials below this are too early to be permit dates (1954-10-10)
// and are more likely stray numbers.
const minExcelSerial = 20000

// ParseDate parses a permit date cell: text in one of the common layouts,
// or an Excel serial day number.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", common.ErrMissingField)
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minExcelSerial {
			return time.Time{}, fmt.Errorf("%w: %q", common.ErrUnparsableDate, s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", common.ErrUnparsableDate, s, err)
		}
		return t, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrUnparsableDate, s)
}

// Days returns the whole days from earlier to later, rounding down.
func Days(earlier, later time.Time) int {
	return int(math.Floor(later.Sub(earlier).Hours() / 24))
}

// Duration parses both dates and returns the day count between them.
// Negative spans fail with ErrNegativeDuration.
func Duration(earlier, later string) (int, error) {
	from, err := ParseDate(earlier)
	if err != nil {
		return 0, err
	}
	to, err := ParseDate(later)
	if err != nil {
		return 0, err
	}
	days := Days(from, to)
	if days < 0 {
		return 0, fmt.Errorf("%w: %d days", common.ErrNegativeDuration, days)
	}
	return days, nil
}

// ParseDuration reads a precomputed duration cell. Spreadsheet exports
// sometimes carry integral floats such as "120.0".
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty duration", common.ErrMissingField)
	}
	f, ok := parseCount(s)
	if !ok {
		return 0, fmt.Errorf("%w: duration %q", common.ErrUnparsableDate, s)
	}
	days := int(math.Floor(f))
	if days < 0 {
		return 0, fmt.Errorf("%w: %d days", common.ErrNegativeDuration, days)
	}
	return days, nil
}

// maxCount bounds numeric cells so they convert to int without overflow.
const maxCount = math.MaxInt32

func parseCount(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.Abs(f) > maxCount {
		return 0, false
	}
	return f, true
}

// ParseSequence reads a Permit Sequence cell. Sequences start at 1; blank,
// unparsable, zero or negative cells report ok=false.
func ParseSequence(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, ok := parseCount(s)
	if !ok || f < 1 {
		return 0, false
	}
	return int(f), true
}
