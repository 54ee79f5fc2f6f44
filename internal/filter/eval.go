package filter

import (
	"math"
	"strings"
	"time"

	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/value"
)

func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, errs.Newf("filter.eval", errs.InvalidRequest, "cannot parse %q as a date-time literal", s)
}

// evalExpr evaluates a parsed expression against a document's field values.
// lambdaVar is passed through unchanged and not consulted; lambda bodies
// are evaluated by evalLambdaItem, which compares each collection item
// directly.
func evalExpr(e Expr, fields map[string]value.Value, lambdaVar string) (bool, error) {
	switch n := e.(type) {
	case Compare:
		return evalCompare(fields[n.Field], n.Op, n.Value)
	case And:
		l, err := evalExpr(n.Left, fields, lambdaVar)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return evalExpr(n.Right, fields, lambdaVar)
	case Or:
		l, err := evalExpr(n.Left, fields, lambdaVar)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return evalExpr(n.Right, fields, lambdaVar)
	case Not:
		r, err := evalExpr(n.Child, fields, lambdaVar)
		if err != nil {
			return false, err
		}
		return !r, nil
	case SearchIn:
		fv := fields[n.Field]
		for _, v := range n.Values {
			if fv.Kind == value.KindString && fv.String == v {
				return true, nil
			}
		}
		return false, nil
	case GeoDistanceCompare:
		fv := fields[n.Field]
		if fv.Kind != value.KindGeoPoint {
			return false, nil
		}
		return compareFloat(haversineKM(fv.Geo.Lat, fv.Geo.Lon, n.Point.Lat, n.Point.Lon), n.Op, n.KM), nil
	case CollectionLambda:
		fv := fields[n.Field]
		if fv.Kind != value.KindList {
			return false, nil
		}
		if n.Predicate == nil {
			return n.All, nil // vacuous all(): true; vacuous any() never reached (parser requires a body)
		}
		if n.All {
			for _, item := range fv.List {
				ok, err := evalLambdaItem(n.Predicate, item)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}
			return true, nil
		}
		for _, item := range fv.List {
			ok, err := evalLambdaItem(n.Predicate, item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case VarCompare:
		// Reached only via evalLambdaItem, which substitutes the bound item
		// directly; a bare VarCompare outside that path has nothing to
		// compare against.
		return false, errs.New("filter.eval", errs.InternalError, errBareVarCompare)
	default:
		return false, errs.New("filter.eval", errs.InternalError, errUnknownExprNode)
	}
}

func evalLambdaItem(predicate Expr, item value.Value) (bool, error) {
	vc, ok := predicate.(VarCompare)
	if !ok {
		return false, errs.New("filter.eval", errs.InvalidRequest, errUnsupportedLambdaBody)
	}
	return evalCompare(item, vc.Op, vc.Value)
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

func evalCompare(fv value.Value, op CompareOp, lit Literal) (bool, error) {
	if lit.Value == nil {
		switch op {
		case OpEq:
			return fv.IsNull(), nil
		case OpNe:
			return !fv.IsNull(), nil
		default:
			return false, nil
		}
	}
	switch v := lit.Value.(type) {
	case string:
		if fv.Kind == value.KindDateTime {
			tt, err := parseDateTime(v)
			if err != nil {
				return false, err
			}
			return compareOrdered(fv.DateTime.Compare(tt), op), nil
		}
		if fv.Kind != value.KindString {
			return false, nil
		}
		return compareOrdered(strings.Compare(fv.String, v), op), nil
	case float64:
		switch fv.Kind {
		case value.KindInt64:
			return compareFloat(float64(fv.Int64), op, v), nil
		case value.KindFloat64:
			return compareFloat(fv.Float64, op, v), nil
		default:
			return false, nil
		}
	case bool:
		if fv.Kind != value.KindBool {
			return false, nil
		}
		if op == OpEq {
			return fv.Bool == v, nil
		}
		if op == OpNe {
			return fv.Bool != v, nil
		}
		return false, nil
	default:
		return false, nil
	}
}

func compareFloat(a float64, op CompareOp, b float64) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	default:
		return false
	}
}

func compareOrdered(cmp int, op CompareOp) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	default:
		return false
	}
}
