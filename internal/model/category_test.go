package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubtype(t *testing.T) {
	tests := []struct {
		in   string
		want Subtype
		ok   bool
	}{
		{in: "MH", want: SubtypeMH, ok: true},
		{in: " BL ", want: SubtypeBL, ok: true},
		{in: "PL", ok: false},
		{in: "", ok: false},
		{in: "mh", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseSubtype(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHeightCategory(t *testing.T) {
	assert.Equal(t, "3–5 floors", Floors3To5.String())
	assert.Equal(t, ">15 floors", FloorsOver15.String())
	assert.Equal(t, "unknown", HeightCategory(7).String())
	assert.Equal(t, 2, Floors6To10.Tier())

	c, ok := CategoryFromTier(3)
	assert.True(t, ok)
	assert.Equal(t, Floors11To15, c)
	_, ok = CategoryFromTier(0)
	assert.False(t, ok)

	c, ok = ParseCategory("6-10 floors")
	assert.True(t, ok)
	assert.Equal(t, Floors6To10, c)
	_, ok = ParseCategory("penthouse")
	assert.False(t, ok)
}

func TestGroupDistribution_MissingSubtype(t *testing.T) {
	g := GroupDistribution{Group: "Queens"}
	d := g.Subtype(SubtypeBL)
	assert.True(t, d.Empty())
	assert.Equal(t, SubtypeBL, d.Subtype)
	assert.True(t, g.Empty())
	assert.Equal(t, 0, g.Total())
}
