package model

// Distribution is the observed distribution of one subtype within one group.
// Percent holds the share of Total per category (0–100).
type Distribution struct {
	Subtype Subtype
	Counts  [NumCategories]int
	Percent [NumCategories]float64
	Total   int
}

// Empty reports whether no records contributed to the distribution.
func (d Distribution) Empty() bool {
	return d.Total == 0
}

// Count returns the number of records in category c.
func (d Distribution) Count(c HeightCategory) int {
	if !c.Valid() {
		return 0
	}
	return d.Counts[c]
}

// Share returns the percentage of records in category c.
func (d Distribution) Share(c HeightCategory) float64 {
	if !c.Valid() {
		return 0
	}
	return d.Percent[c]
}

// GroupDistribution holds a distribution for every recognized subtype of a group.
type GroupDistribution struct {
	Group     string
	BySubtype map[Subtype]Distribution
}

// Subtype returns the distribution for s; missing subtypes yield an all-zero value.
func (g GroupDistribution) Subtype(s Subtype) Distribution {
	if d, ok := g.BySubtype[s]; ok {
		return d
	}
	return Distribution{Subtype: s}
}

// Empty reports whether every subtype distribution is empty.
func (g GroupDistribution) Empty() bool {
	for _, d := range g.BySubtype {
		if !d.Empty() {
			return false
		}
	}
	return true
}

// Total returns the number of categorized records across subtypes.
func (g GroupDistribution) Total() int {
	total := 0
	for _, d := range g.BySubtype {
		total += d.Total
	}
	return total
}

// Average is the mean duration of one subtype within one group.
type Average struct {
	Subtype Subtype
	Mean    float64
	Count   int
}
