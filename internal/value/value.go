// Package value implements the typed document value tree called for by
// spec.md §9 ("Runtime-reflective dictionary documents"): a closed Kind
// union instead of a reflective map[string]interface{}, with field-type
// coercion happening once at ingest (§4.2 "field encoding rules") rather
// than scattered through every consumer.
package value

import (
	"fmt"
	"time"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

// Kind is the closed set of value shapes a document field can hold.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindDateTime
	KindGeoPoint
	KindBytes
	KindVector
	KindList
	KindMap
)

// GeoPoint is a WGS84 coordinate pair, matching Edm.GeographyPoint.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Value is a single typed document value. Only the field matching Kind is
// meaningful; the rest are zero. Construct with the New* helpers below
// rather than populating fields directly.
type Value struct {
	Kind Kind

	Bool     bool
	Int64    int64
	Float64  float64
	String   string
	DateTime time.Time
	Geo      GeoPoint
	Bytes    []byte
	Vector   []float32
	List     []Value
	Map      map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func Bool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func Int64(i int64) Value         { return Value{Kind: KindInt64, Int64: i} }
func Float64(f float64) Value     { return Value{Kind: KindFloat64, Float64: f} }
func String(s string) Value       { return Value{Kind: KindString, String: s} }
func DateTime(t time.Time) Value  { return Value{Kind: KindDateTime, DateTime: t} }
func Geo(p GeoPoint) Value        { return Value{Kind: KindGeoPoint, Geo: p} }
func Bytes(b []byte) Value        { return Value{Kind: KindBytes, Bytes: b} }
func Vector(v []float32) Value    { return Value{Kind: KindVector, Vector: v} }
func List(vs []Value) Value       { return Value{Kind: KindList, List: vs} }
func Map(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// IsNull reports whether v is the null value, including the Go zero Value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsString is a best-effort scalar stringification used by highlight
// snippeting and facet labeling; it never panics.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.String
	case KindInt64:
		return fmt.Sprintf("%d", v.Int64)
	case KindFloat64:
		return fmt.Sprintf("%g", v.Float64)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindDateTime:
		return v.DateTime.Format(time.RFC3339)
	case KindNull:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ApproxSize estimates the in-memory footprint of v in bytes, used by the
// index/service stats surfaces (§6.1) to humanize a storage-size figure
// without walking an actual on-disk representation.
func ApproxSize(v Value) uint64 {
	const scalarSize = 8
	switch v.Kind {
	case KindString:
		return uint64(len(v.String))
	case KindBytes:
		return uint64(len(v.Bytes))
	case KindVector:
		return uint64(len(v.Vector)) * 4
	case KindList:
		var total uint64
		for _, e := range v.List {
			total += ApproxSize(e)
		}
		return total
	case KindMap:
		var total uint64
		for k, e := range v.Map {
			total += uint64(len(k)) + ApproxSize(e)
		}
		return total
	default:
		return scalarSize
	}
}

// Equal performs a typed equality check used by filter eq/ne comparisons;
// mismatched Kinds are never equal (the filter evaluator rejects cross-type
// comparisons earlier, with a typed parse error, per §4.3).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt64:
		return v.Int64 == other.Int64
	case KindFloat64:
		return v.Float64 == other.Float64
	case KindString:
		return v.String == other.String
	case KindDateTime:
		return v.DateTime.Equal(other.DateTime)
	case KindGeoPoint:
		return v.Geo == other.Geo
	default:
		return false
	}
}

// Compare returns -1/0/1 for ordered Kinds (Int64, Float64, String, DateTime);
// it returns 0 for unordered Kinds, which callers must guard against before
// relying on ordering (the filter evaluator only calls Compare after type
// checking gt/ge/lt/le operands).
func (v Value) Compare(other Value) int {
	switch v.Kind {
	case KindInt64:
		return cmp(v.Int64, other.Int64)
	case KindFloat64:
		return cmp(v.Float64, other.Float64)
	case KindString:
		return cmp(v.String, other.String)
	case KindDateTime:
		switch {
		case v.DateTime.Before(other.DateTime):
			return -1
		case v.DateTime.After(other.DateTime):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// ToAny converts v into a plain Go value suitable for JSON materialization
// of a result row (§4.6 step 9 "Materialize result fields").
func ToAny(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt64:
		return v.Int64
	case KindFloat64:
		return v.Float64
	case KindString:
		return v.String
	case KindDateTime:
		return v.DateTime.Format(time.RFC3339)
	case KindGeoPoint:
		return map[string]any{"type": "Point", "coordinates": []float64{v.Geo.Lon, v.Geo.Lat}}
	case KindBytes:
		return v.Bytes
	case KindVector:
		return v.Vector
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, item := range v.Map {
			out[k] = ToAny(item)
		}
		return out
	default:
		return nil
	}
}

// FromAny coerces a plain JSON-decoded Go value (the shape gjson/sjson and
// encoding/json produce: nil, bool, float64, string, []any, map[string]any)
// into a Value matching ft's declared field type (§4.2 "field encoding
// rules"). Collection(<elem>) coerces each list element with the element
// type; Edm.GeographyPoint expects a GeoJSON-style
// {"type":"Point","coordinates":[lon,lat]} map, matching ToAny's own output
// shape. Unrecognized or mismatched shapes fall back to Null rather than
// erroring, since this is a best-effort bridge from loosely typed enriched
// documents, not the strict-typed HTTP request path.
func FromAny(ft catalog.FieldType, raw any) Value {
	if raw == nil {
		return Null()
	}
	if catalog.IsCollection(ft) {
		elem := catalog.CollectionElem(ft)
		list, ok := raw.([]any)
		if !ok {
			return Null()
		}
		out := make([]Value, len(list))
		for i, item := range list {
			out[i] = FromAny(elem, item)
		}
		return List(out)
	}

	switch ft {
	case catalog.TypeString:
		if s, ok := raw.(string); ok {
			return String(s)
		}
		return Null()
	case catalog.TypeInt32, catalog.TypeInt64:
		switch n := raw.(type) {
		case float64:
			return Int64(int64(n))
		case int64:
			return Int64(n)
		case int:
			return Int64(int64(n))
		}
		return Null()
	case catalog.TypeDouble, catalog.TypeSingle:
		switch n := raw.(type) {
		case float64:
			return Float64(n)
		case int:
			return Float64(float64(n))
		}
		return Null()
	case catalog.TypeBoolean:
		if b, ok := raw.(bool); ok {
			return Bool(b)
		}
		return Null()
	case catalog.TypeDateTimeOffset:
		if s, ok := raw.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return DateTime(t)
			}
		}
		return Null()
	case catalog.TypeGeographyPoint:
		m, ok := raw.(map[string]any)
		if !ok {
			return Null()
		}
		coords, ok := m["coordinates"].([]any)
		if !ok || len(coords) != 2 {
			return Null()
		}
		lon, lonOK := coords[0].(float64)
		lat, latOK := coords[1].(float64)
		if !lonOK || !latOK {
			return Null()
		}
		return Geo(GeoPoint{Lon: lon, Lat: lat})
	default:
		return Null()
	}
}

func cmp[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
