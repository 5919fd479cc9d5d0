package categorize

import (
	"testing"

	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize_Boundaries(t *testing.T) {
	c := Default()

	tests := []struct {
		subtype  model.Subtype
		duration int
		want     model.HeightCategory
	}{
		{model.SubtypeBL, 0, model.Floors3To5},
		{model.SubtypeBL, 60, model.Floors3To5},
		{model.SubtypeBL, 61, model.Floors6To10},
		{model.SubtypeBL, 120, model.Floors6To10},
		{model.SubtypeBL, 121, model.Floors11To15},
		{model.SubtypeBL, 179, model.Floors11To15},
		{model.SubtypeBL, 180, model.FloorsOver15},
		{model.SubtypeBL, 5000, model.FloorsOver15},
		{model.SubtypeMH, 120, model.Floors3To5},
		{model.SubtypeMH, 121, model.Floors6To10},
		{model.SubtypeMH, 180, model.Floors6To10},
		{model.SubtypeMH, 181, model.Floors11To15},
		{model.SubtypeMH, 269, model.Floors11To15},
		{model.SubtypeMH, 270, model.FloorsOver15},
	}

	for _, tt := range tests {
		got, ok := c.Categorize(tt.subtype, tt.duration)
		require.True(t, ok, "%s %d", tt.subtype, tt.duration)
		assert.Equal(t, tt.want, got, "%s %d", tt.subtype, tt.duration)
	}
}

func TestCategorize_Declines(t *testing.T) {
	c := Default()

	_, ok := c.Categorize("PL", 10)
	assert.False(t, ok)

	_, ok = c.Categorize(model.SubtypeMH, -1)
	assert.False(t, ok)
}

func TestCategorize_Deterministic(t *testing.T) {
	c := Default()
	for d := 0; d <= 400; d++ {
		first, _ := c.Categorize(model.SubtypeMH, d)
		second, _ := c.Categorize(model.SubtypeMH, d)
		assert.Equal(t, first, second)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
	}{
		{name: "descending", bounds: Bounds{120, 60, 179}},
		{name: "repeated", bounds: Bounds{60, 60, 179}},
		{name: "negative", bounds: Bounds{-1, 60, 179}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(map[model.Subtype]Bounds{model.SubtypeBL: tt.bounds})
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestNew_CustomBounds(t *testing.T) {
	c, err := New(map[model.Subtype]Bounds{model.SubtypeBL: {10, 20, 30}})
	require.NoError(t, err)

	got, ok := c.Categorize(model.SubtypeBL, 25)
	require.True(t, ok)
	assert.Equal(t, model.Floors11To15, got)

	_, ok = c.Categorize(model.SubtypeMH, 25)
	assert.False(t, ok, "subtypes without bounds are unknown")

	b, ok := c.Bounds(model.SubtypeBL)
	require.True(t, ok)
	assert.Equal(t, Bounds{10, 20, 30}, b)
}
