// Package filter is the filter evaluator (§4.3): a recursive-descent parser
// for a restricted OData $filter subset and the compiler that turns a parsed
// expression into a lexical-index filter plus a residual predicate closure.
// Grounded on the teacher's pkg/core/advanced_filter.go FilterExpression
// tree and operator set, rebuilt as a proper tokenizer/parser rather than
// the teacher's string-splitting approach, since the spec's grammar (nested
// function calls, `any()/all()` lambdas, `geo.distance`) does not reduce to
// sequential substring search.
package filter

import "github.com/liliang-cn/searchsim/internal/value"

// CompareOp is one of the six OData comparison operators (§4.3).
type CompareOp string

const (
	OpEq CompareOp = "eq"
	OpNe CompareOp = "ne"
	OpGt CompareOp = "gt"
	OpGe CompareOp = "ge"
	OpLt CompareOp = "lt"
	OpLe CompareOp = "le"
)

// Expr is one node of a parsed filter expression.
type Expr interface {
	isExpr()
}

// Literal is a parsed scalar: string (quoted text or an unquoted date-time),
// float64, bool, or nil for null. geo.distance's point(lon, lat) argument is
// carried on GeoDistanceCompare, not as a Literal.
type Literal struct {
	Value any
}

// Compare is `field op literal` (§4.3 comparisons).
type Compare struct {
	Field string
	Op    CompareOp
	Value Literal
}

// And/Or/Not are the boolean connectives (§4.3 "and/or/not").
type And struct{ Left, Right Expr }
type Or struct{ Left, Right Expr }
type Not struct{ Child Expr }

// SearchIn is `search.in(field, 'a,b,c', ',')` (§4.3).
type SearchIn struct {
	Field     string
	Values    []string
	Delimiter string
}

// GeoDistanceCompare is `geo.distance(field, point(lon, lat)) op literalKm`
// (§4.3 geo.distance).
type GeoDistanceCompare struct {
	Field string
	Point value.GeoPoint
	Op    CompareOp
	KM    float64
}

// CollectionLambda is `field/any(x: predicate)` or `field/all(x: predicate)`
// on a Collection(...) field (§4.3 "collection predicates any()/all()").
type CollectionLambda struct {
	Field     string
	All       bool
	Var       string
	Predicate Expr
}

// VarCompare is a comparison against the lambda variable inside an
// any()/all() predicate, e.g. `x eq 'red'` (the predicate's own field slot
// is the lambda variable itself, not a sub-field).
type VarCompare struct {
	Var   string
	Op    CompareOp
	Value Literal
}

func (Compare) isExpr()            {}
func (And) isExpr()                {}
func (Or) isExpr()                 {}
func (Not) isExpr()                {}
func (SearchIn) isExpr()           {}
func (GeoDistanceCompare) isExpr() {}
func (CollectionLambda) isExpr()   {}
func (VarCompare) isExpr()         {}
