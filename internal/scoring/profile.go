package scoring

import (
	"strconv"
	"strings"
	"time"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/value"
)

// Params carries the per-request values a scoring profile's functions may
// need beyond the document itself (§3 Scoring function "referencePointParameter"
// and "tagsParameter" are request-time values, not index-time ones).
type Params struct {
	Now             time.Time
	ReferencePoints map[string]value.GeoPoint
	Tags            map[string][]string
}

// Apply computes the final per-document score for a search hit: the base
// text score combined with every scoring-function contribution, per the
// profile's aggregation (§4.5). A nil profile is the identity (returns
// textScore unchanged).
func Apply(profile *catalog.ScoringProfile, textScore float64, fields map[string]value.Value, params Params) float64 {
	if profile == nil || len(profile.Functions) == 0 {
		return textScore
	}
	contributions := make([]float64, 0, len(profile.Functions))
	for _, fn := range profile.Functions {
		contributions = append(contributions, evalFunction(fn, fields, params))
	}
	combined := aggregate(profile.Aggregation, contributions)
	if combined < 1 {
		combined = 1
	}
	return textScore * combined
}

func aggregate(agg catalog.Aggregation, contributions []float64) float64 {
	if len(contributions) == 0 {
		return 1
	}
	switch agg {
	case catalog.AggAverage:
		sum := 0.0
		for _, c := range contributions {
			sum += c
		}
		return sum / float64(len(contributions))
	case catalog.AggMinimum:
		min := contributions[0]
		for _, c := range contributions[1:] {
			if c < min {
				min = c
			}
		}
		return min
	case catalog.AggMaximum:
		max := contributions[0]
		for _, c := range contributions[1:] {
			if c > max {
				max = c
			}
		}
		return max
	case catalog.AggFirstMatching:
		// "firstMatching" picks the first function yielding a non-unit factor
		// (§4.5); if every function was a no-op, the profile contributes no
		// boost at all.
		for _, c := range contributions {
			if c != 1 {
				return c
			}
		}
		return 1
	default: // sum
		sum := 0.0
		for _, c := range contributions {
			sum += c
		}
		return sum
	}
}

func evalFunction(fn catalog.ScoringFunction, fields map[string]value.Value, params Params) float64 {
	switch fn.Type {
	case catalog.FuncFreshness:
		return evalFreshness(fn, fields)
	case catalog.FuncMagnitude:
		return evalMagnitude(fn, fields)
	case catalog.FuncDistance:
		return evalDistance(fn, fields, params)
	case catalog.FuncTag:
		return evalTag(fn, fields, params)
	default:
		return 1
	}
}

// evalFreshness boosts documents whose timestamp field is recent, decaying
// to no boost (1.0) once the age exceeds BoostingDuration (§3, §4.5).
func evalFreshness(fn catalog.ScoringFunction, fields map[string]value.Value) float64 {
	fv, ok := fields[fn.FieldName]
	if !ok || fv.Kind != value.KindDateTime {
		return 1
	}
	window := parseISODuration(fn.BoostingDuration)
	if window <= 0 {
		return 1
	}
	age := time.Since(fv.DateTime)
	if age < 0 {
		age = 0
	}
	if age >= window {
		return 1
	}
	t := age.Seconds() / window.Seconds()
	weight := interpolate(t, fn.Interpolation)
	return weightToBoost(weight, fn.Boost)
}

// evalMagnitude boosts based on where a numeric field falls within
// [BoostingRangeStart, BoostingRangeEnd] (§3, §4.5).
func evalMagnitude(fn catalog.ScoringFunction, fields map[string]value.Value) float64 {
	fv, ok := fields[fn.FieldName]
	if !ok {
		return 1
	}
	var num float64
	switch fv.Kind {
	case value.KindFloat64:
		num = fv.Float64
	case value.KindInt64:
		num = float64(fv.Int64)
	default:
		return 1
	}
	start, end := fn.BoostingRangeStart, fn.BoostingRangeEnd
	if end == start {
		return 1
	}
	if num < start || num > end {
		if !fn.ConstantBoostBeyondRange {
			return 1
		}
		if num < start {
			num = start
		} else {
			num = end
		}
	}
	t := (num - start) / (end - start)
	// Magnitude weights toward the range end (higher magnitude = more boost),
	// so invert: weight 1 at end, 0 at start.
	weight := interpolate(1-t, fn.Interpolation)
	return weightToBoost(weight, fn.Boost)
}

// evalDistance boosts documents whose geo field is close to the caller's
// reference point (§3, §4.5), grounded on haversineKM in geo.go.
func evalDistance(fn catalog.ScoringFunction, fields map[string]value.Value, params Params) float64 {
	fv, ok := fields[fn.FieldName]
	if !ok || fv.Kind != value.KindGeoPoint {
		return 1
	}
	ref, ok := params.ReferencePoints[fn.ReferencePointParameter]
	if !ok {
		return 1
	}
	if fn.BoostingDistance <= 0 {
		return 1
	}
	dist := haversineKM(fv.Geo.Lat, fv.Geo.Lon, ref.Lat, ref.Lon)
	if dist >= fn.BoostingDistance {
		return 1
	}
	t := dist / fn.BoostingDistance
	weight := interpolate(t, fn.Interpolation)
	return weightToBoost(weight, fn.Boost)
}

// evalTag boosts by the fraction of the document's tag field also present
// in the caller-supplied tagsParameter (§4.5: "fraction of tags in the
// field also present in the tagsParameter value").
func evalTag(fn catalog.ScoringFunction, fields map[string]value.Value, params Params) float64 {
	fv, ok := fields[fn.FieldName]
	if !ok {
		return 1
	}
	requested := params.Tags[fn.TagsParameter]
	if len(requested) == 0 {
		return 1
	}
	docTags := stringListOf(fv)
	if len(docTags) == 0 {
		return 1
	}
	want := make(map[string]bool, len(requested))
	for _, t := range requested {
		want[strings.ToLower(t)] = true
	}
	matches := 0
	for _, t := range docTags {
		if want[strings.ToLower(t)] {
			matches++
		}
	}
	if matches == 0 {
		return 1
	}
	fraction := float64(matches) / float64(len(docTags))
	weight := interpolate(1-fraction, fn.Interpolation)
	return weightToBoost(weight, fn.Boost)
}

func stringListOf(v value.Value) []string {
	if v.Kind != value.KindList {
		return nil
	}
	out := make([]string, 0, len(v.List))
	for _, item := range v.List {
		if item.Kind == value.KindString {
			out = append(out, item.String)
		}
	}
	return out
}

// parseISODuration parses a restricted ISO-8601 duration of the form
// "P<n>D" or "P<n>DT<n>H<n>M<n>S" (the subset Azure's boostingDuration
// accepts). No duration-parsing library appears anywhere in the retrieved
// example pack, so this is hand-rolled rather than imported (see DESIGN.md).
func parseISODuration(s string) time.Duration {
	if !strings.HasPrefix(s, "P") {
		return 0
	}
	s = s[1:]
	datePart, timePart, hasTime := strings.Cut(s, "T")
	if !hasTime {
		datePart = s
		timePart = ""
	}

	var total time.Duration
	total += parseUnitRun(datePart, map[byte]time.Duration{
		'Y': 365 * 24 * time.Hour,
		'M': 30 * 24 * time.Hour,
		'D': 24 * time.Hour,
		'W': 7 * 24 * time.Hour,
	})
	total += parseUnitRun(timePart, map[byte]time.Duration{
		'H': time.Hour,
		'M': time.Minute,
		'S': time.Second,
	})
	return total
}

func parseUnitRun(s string, units map[byte]time.Duration) time.Duration {
	var total time.Duration
	num := strings.Builder{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c == '.' {
			num.WriteByte(c)
			continue
		}
		if unit, ok := units[c]; ok {
			n, err := strconv.ParseFloat(num.String(), 64)
			if err == nil {
				total += time.Duration(n * float64(unit))
			}
		}
		num.Reset()
	}
	return total
}
