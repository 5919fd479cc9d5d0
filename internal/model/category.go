package model

// HeightCategory is one of the ordered building-height buckets.
type HeightCategory int

// Height categories, ordered from lowest to tallest.
const (
	Floors3To5 HeightCategory = iota
	Floors6To10
	Floors11To15
	FloorsOver15
)

// NumCategories is the number of height categories.
const NumCategories = 4

// Categories lists every height category in order.
var Categories = [NumCategories]HeightCategory{Floors3To5, Floors6To10, Floors11To15, FloorsOver15}

var categoryLabels = [NumCategories]string{"3–5 floors", "6–10 floors", "11–15 floors", ">15 floors"}

func (c HeightCategory) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryLabels[c]
}

// Valid reports whether c is one of the defined categories.
func (c HeightCategory) Valid() bool {
	return c >= Floors3To5 && c <= FloorsOver15
}

// Tier returns the 1-based tier number.
func (c HeightCategory) Tier() int {
	return int(c) + 1
}

// CategoryFromTier maps a 1-based tier number to its category.
func CategoryFromTier(tier int) (HeightCategory, bool) {
	c := HeightCategory(tier - 1)
	return c, c.Valid()
}

// ParseCategory matches a label such as "6–10 floors". A plain hyphen is
// accepted in place of the en dash.
func ParseCategory(label string) (HeightCategory, bool) {
	for i, l := range categoryLabels {
		if label == l || label == hyphenated(l) {
			return HeightCategory(i), true
		}
	}
	return 0, false
}

// CategoryLabels returns the display labels in order.
func CategoryLabels() []string {
	out := make([]string, NumCategories)
	copy(out, categoryLabels[:])
	return out
}

func hyphenated(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '–' {
			out[i] = '-'
		}
	}
	return string(out)
}
