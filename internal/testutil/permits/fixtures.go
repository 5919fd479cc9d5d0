package permits

import "github.com/Veraticus/permitflow/internal/model"

// Entry describes one fixture permit.
type Entry struct {
	Subtype  model.Subtype
	Duration int
	Sequence int
}

// Fixture is a named set of permits from one group.
type Fixture struct {
	Group   string
	Permits []Entry
}

// Predefined fixtures.
var (
	// FixtureManhattan covers every MH height category and one renewal.
	FixtureManhattan = Fixture{
		Group: "MANHATTAN",
		Permits: []Entry{
			{Subtype: model.SubtypeMH, Duration: 100, Sequence: 1},
			{Subtype: model.SubtypeMH, Duration: 150, Sequence: 1},
			{Subtype: model.SubtypeMH, Duration: 200, Sequence: 2},
			{Subtype: model.SubtypeMH, Duration: 300, Sequence: 1},
			{Subtype: model.SubtypeBL, Duration: 50, Sequence: 1},
		},
	}

	// FixtureQueens holds BL permits only.
	FixtureQueens = Fixture{
		Group: "QUEENS",
		Permits: []Entry{
			{Subtype: model.SubtypeBL, Duration: 40, Sequence: 1},
			{Subtype: model.SubtypeBL, Duration: 90, Sequence: 1},
			{Subtype: model.SubtypeBL, Duration: 150, Sequence: 3},
		},
	}
)
