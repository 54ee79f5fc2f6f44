package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/value"
)

func TestApplyNilProfileIsIdentity(t *testing.T) {
	score := Apply(nil, 2.5, map[string]value.Value{}, Params{})
	assert.Equal(t, 2.5, score)
}

func TestFreshnessBoostsRecentDocumentsMore(t *testing.T) {
	profile := &catalog.ScoringProfile{
		Functions: []catalog.ScoringFunction{
			{Type: catalog.FuncFreshness, FieldName: "published", Boost: 5, Interpolation: catalog.InterpLinear, BoostingDuration: "P7D"},
		},
		Aggregation: catalog.AggSum,
	}
	recent := map[string]value.Value{"published": value.DateTime(time.Now())}
	old := map[string]value.Value{"published": value.DateTime(time.Now().Add(-30 * 24 * time.Hour))}

	recentScore := Apply(profile, 1.0, recent, Params{})
	oldScore := Apply(profile, 1.0, old, Params{})

	assert.Greater(t, recentScore, oldScore)
	assert.InDelta(t, 1.0, oldScore, 1e-9)
}

func TestMagnitudeBoostsHigherWithinRange(t *testing.T) {
	profile := &catalog.ScoringProfile{
		Functions: []catalog.ScoringFunction{
			{Type: catalog.FuncMagnitude, FieldName: "rating", Boost: 3, Interpolation: catalog.InterpLinear, BoostingRangeStart: 0, BoostingRangeEnd: 5},
		},
		Aggregation: catalog.AggSum,
	}
	low := Apply(profile, 1.0, map[string]value.Value{"rating": value.Float64(1)}, Params{})
	high := Apply(profile, 1.0, map[string]value.Value{"rating": value.Float64(5)}, Params{})
	assert.Greater(t, high, low)
}

func TestDistanceBoostsCloserPointsMore(t *testing.T) {
	profile := &catalog.ScoringProfile{
		Functions: []catalog.ScoringFunction{
			{Type: catalog.FuncDistance, FieldName: "loc", Boost: 4, Interpolation: catalog.InterpLinear, ReferencePointParameter: "here", BoostingDistance: 100},
		},
		Aggregation: catalog.AggSum,
	}
	params := Params{ReferencePoints: map[string]value.GeoPoint{"here": {Lat: 0, Lon: 0}}}
	near := Apply(profile, 1.0, map[string]value.Value{"loc": value.Geo(value.GeoPoint{Lat: 0.01, Lon: 0})}, params)
	far := Apply(profile, 1.0, map[string]value.Value{"loc": value.Geo(value.GeoPoint{Lat: 5, Lon: 5})}, params)
	assert.Greater(t, near, far)
}

func TestTagBoostScalesWithMatchCount(t *testing.T) {
	profile := &catalog.ScoringProfile{
		Functions: []catalog.ScoringFunction{
			{Type: catalog.FuncTag, FieldName: "tags", Boost: 3, TagsParameter: "preferred"},
		},
		Aggregation: catalog.AggSum,
	}
	params := Params{Tags: map[string][]string{"preferred": {"go", "search"}}}
	// One of three field tags matches (fraction 1/3) vs both of two matching
	// (fraction 1) — the full-fraction document should score higher.
	oneMatch := Apply(profile, 1.0, map[string]value.Value{"tags": value.List([]value.Value{
		value.String("go"), value.String("other"), value.String("other2"),
	})}, params)
	twoMatch := Apply(profile, 1.0, map[string]value.Value{"tags": value.List([]value.Value{
		value.String("go"), value.String("search"),
	})}, params)
	assert.Greater(t, twoMatch, oneMatch)
}

func TestAggregationCombinesFunctions(t *testing.T) {
	profile := &catalog.ScoringProfile{
		Functions: []catalog.ScoringFunction{
			{Type: catalog.FuncMagnitude, FieldName: "a", Boost: 2, BoostingRangeStart: 0, BoostingRangeEnd: 10},
			{Type: catalog.FuncMagnitude, FieldName: "b", Boost: 2, BoostingRangeStart: 0, BoostingRangeEnd: 10},
		},
	}
	fields := map[string]value.Value{"a": value.Float64(10), "b": value.Float64(10)}

	sumProfile := *profile
	sumProfile.Aggregation = catalog.AggSum
	maxProfile := *profile
	maxProfile.Aggregation = catalog.AggMaximum

	sumScore := Apply(&sumProfile, 1.0, fields, Params{})
	maxScore := Apply(&maxProfile, 1.0, fields, Params{})
	assert.Greater(t, sumScore, maxScore)
}

func TestParseISODuration(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, parseISODuration("P7D"))
	assert.Equal(t, 24*time.Hour+2*time.Hour, parseISODuration("P1DT2H"))
}
