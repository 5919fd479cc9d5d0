package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/permitflow/internal/categorize"
	"github.com/Veraticus/permitflow/internal/common"
	"github.com/Veraticus/permitflow/internal/derive"
	"github.com/Veraticus/permitflow/internal/estimate"
	"github.com/Veraticus/permitflow/internal/model"
	"github.com/Veraticus/permitflow/internal/selection"
	"github.com/spf13/viper"
)

// RegionConfig is one row of the expected distribution table.
type RegionConfig struct {
	Name   string    `mapstructure:"name" validate:"required"`
	Values []float64 `mapstructure:"values" validate:"len=4,dive,gte=0,lte=100"`
}

// ExpectedConfig is the expected.* config section.
type ExpectedConfig struct {
	Regions []RegionConfig `mapstructure:"regions" validate:"required,min=1,dive"`
}

// DefaultExpectedRegions returns the reference distribution of permits by
// building height per borough, in percent.
func DefaultExpectedRegions() []RegionConfig {
	return []RegionConfig{
		{Name: "Manhattan", Values: []float64{47.0, 29.5, 6.0, 17.5}},
		{Name: "Brooklyn", Values: []float64{69.0, 23.0, 7.0, 1.0}},
		{Name: "Queens", Values: []float64{76.0, 19.0, 4.0, 1.0}},
		{Name: "Bronx", Values: []float64{59.0, 32.0, 7.0, 2.0}},
		{Name: "Staten Island", Values: []float64{89.0, 9.0, 2.0, 0.0}},
	}
}

// BuildExpected turns region rows into an expected table.
func BuildExpected(regions []RegionConfig) (*model.ExpectedTable, error) {
	if err := common.ValidateStruct(ExpectedConfig{Regions: regions}); err != nil {
		return nil, err
	}
	names := make([]string, len(regions))
	rows := make(map[string]model.ExpectedRow, len(regions))
	for i, r := range regions {
		name := strings.TrimSpace(r.Name)
		names[i] = name
		var row model.ExpectedRow
		copy(row[:], r.Values)
		rows[name] = row
	}
	table, err := model.NewExpectedTable(names, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return table, nil
}

// LoadExpected returns the configured expected table, or the default one
// when expected.regions is not set.
func LoadExpected() (*model.ExpectedTable, error) {
	regions := DefaultExpectedRegions()
	if viper.IsSet("expected.regions") {
		var cfg ExpectedConfig
		if err := viper.UnmarshalKey("expected", &cfg); err != nil {
			return nil, fmt.Errorf("%w: expected: %v", common.ErrInvalidConfig, err)
		}
		regions = cfg.Regions
	}
	return BuildExpected(regions)
}

// LoadCategorizer builds the categorizer from thresholds.mh and
// thresholds.bl, each a list of three ascending inclusive upper bounds.
func LoadCategorizer() (*categorize.Categorizer, error) {
	thresholds := categorize.DefaultThresholds()
	for _, s := range model.Subtypes {
		key := "thresholds." + strings.ToLower(string(s))
		if !viper.IsSet(key) {
			continue
		}
		values := viper.GetIntSlice(key)
		if len(values) != len(categorize.Bounds{}) {
			return nil, fmt.Errorf("%w: %s needs %d bounds, got %d", common.ErrInvalidConfig, key, len(categorize.Bounds{}), len(values))
		}
		var b categorize.Bounds
		copy(b[:], values)
		thresholds[s] = b
	}
	return categorize.New(thresholds)
}

// LoadCleanLimits returns the per-subtype duration limits used by clean.
func LoadCleanLimits() (map[model.Subtype]int, error) {
	limits := derive.DefaultLimits()
	for _, s := range model.Subtypes {
		key := "clean.limits." + strings.ToLower(string(s))
		if viper.IsSet(key) {
			limits[s] = viper.GetInt(key)
		}
	}
	if err := derive.ValidateLimits(limits); err != nil {
		return nil, err
	}
	return limits, nil
}

// LoadCutoffYear returns the first expiration year treated as not completed.
func LoadCutoffYear() int {
	if viper.IsSet("complete.cutoff_year") {
		return viper.GetInt("complete.cutoff_year")
	}
	return derive.DefaultCutoffYear
}

// LoadSelection returns the configured row selection criteria.
func LoadSelection() (selection.Criteria, error) {
	criteria := selection.DefaultCriteria()
	if viper.IsSet("selection.rules") {
		criteria = selection.Criteria{}
		if err := viper.UnmarshalKey("selection", &criteria); err != nil {
			return criteria, fmt.Errorf("%w: selection: %v", common.ErrInvalidConfig, err)
		}
	}
	if err := common.ValidateStruct(criteria); err != nil {
		return criteria, err
	}
	if err := criteria.Validate(); err != nil {
		return criteria, err
	}
	return criteria, nil
}

// LoadEstimateDefaults fills an estimation request from estimate.* keys.
func LoadEstimateDefaults(workType string) estimate.Request {
	req := estimate.DefaultRequest(workType)
	if viper.IsSet("estimate.samples") {
		req.Samples = viper.GetInt("estimate.samples")
	}
	if viper.IsSet("estimate.threshold") {
		req.Threshold = viper.GetInt("estimate.threshold")
	}
	if viper.IsSet("estimate.recent_years") {
		req.RecentYears = viper.GetInt("estimate.recent_years")
	}
	if viper.IsSet("estimate.seed") {
		req.Seed = viper.GetUint64("estimate.seed")
	}
	return req
}

// DatabasePath returns the configured database path, expanded.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}
	return DefaultDatabasePath()
}
