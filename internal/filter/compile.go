package filter

import (
	"strings"

	"github.com/liliang-cn/searchsim/internal/catalog"
	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/value"
)

// Predicate evaluates a compiled filter against one document's field values.
type Predicate func(fields map[string]value.Value) (bool, error)

// Compiled is the result of compiling a $filter expression (§4.3): a
// residual predicate usable for facets and for post-filtering vector hits,
// plus the subset of top-level conjuncts that could be pushed down as a
// lexical-index filter to prune candidates before scoring.
type Compiled struct {
	Residual Predicate
	Pushdown []LexicalClause
}

// LexicalClause is one field-level constraint cheap enough for the lexical
// index to prune on directly (§4.3 "lexical-index filter (range/term/numeric)").
// Only top-level AND-ed comparisons on filterable fields are pushed down;
// everything else (OR, NOT, lambdas, search.in, geo.distance) is still
// checked correctly by Residual, just not pruned early.
type LexicalClause struct {
	Field string
	Op    CompareOp
	Value value.Value
}

// Compile parses and type-checks expr against idx, returning the compiled
// residual predicate and lexical pushdown clauses (§4.3).
func Compile(expr string, idx catalog.IndexDef) (*Compiled, error) {
	if strings.TrimSpace(expr) == "" {
		return &Compiled{Residual: func(map[string]value.Value) (bool, error) { return true, nil }}, nil
	}
	ast, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	tc := &typeChecker{idx: idx}
	if err := tc.check(ast); err != nil {
		return nil, err
	}
	residual := func(fields map[string]value.Value) (bool, error) {
		return evalExpr(ast, fields, "")
	}
	return &Compiled{Residual: residual, Pushdown: pushdownClauses(ast, idx)}, nil
}

// typeChecker enforces §4.3 "Type checking is strict: comparing a date to a
// string fails with a typed parse error. Facetable/filterable flags are
// enforced" (filterable, specifically, since this is the $filter grammar).
type typeChecker struct {
	idx catalog.IndexDef
}

func (tc *typeChecker) check(e Expr) error {
	switch n := e.(type) {
	case Compare:
		return tc.checkCompare(n.Field, n.Op, n.Value)
	case And:
		if err := tc.check(n.Left); err != nil {
			return err
		}
		return tc.check(n.Right)
	case Or:
		if err := tc.check(n.Left); err != nil {
			return err
		}
		return tc.check(n.Right)
	case Not:
		return tc.check(n.Child)
	case SearchIn:
		_, err := tc.requireFilterable(n.Field)
		return err
	case GeoDistanceCompare:
		f, err := tc.requireFilterable(n.Field)
		if err != nil {
			return err
		}
		if f.Type != catalog.TypeGeographyPoint {
			return errs.Newf("filter.typecheck", errs.InvalidRequest, "geo.distance requires a GeographyPoint field, field %q is %s", n.Field, f.Type)
		}
		return nil
	case CollectionLambda:
		f, err := tc.requireFilterable(n.Field)
		if err != nil {
			return err
		}
		if !catalog.IsCollection(f.Type) {
			return errs.Newf("filter.typecheck", errs.InvalidRequest, "any()/all() requires a collection field, field %q is %s", n.Field, f.Type)
		}
		if n.Predicate != nil {
			return tc.check(n.Predicate)
		}
		return nil
	case VarCompare:
		return nil // the lambda body's literal is not type-checked against the collection's element type
	default:
		return nil
	}
}

func (tc *typeChecker) requireFilterable(name string) (catalog.Field, error) {
	f, ok := tc.idx.FieldByName(name)
	if !ok {
		return catalog.Field{}, errs.Newf("filter.typecheck", errs.InvalidRequest, "unknown field %q in filter expression", name)
	}
	if !f.Filterable {
		return catalog.Field{}, errs.Newf("filter.typecheck", errs.InvalidRequest, "field %q is not filterable", name)
	}
	return f, nil
}

func (tc *typeChecker) checkCompare(field string, op CompareOp, lit Literal) error {
	f, err := tc.requireFilterable(field)
	if err != nil {
		return err
	}
	if !literalMatchesType(lit, f.Type) {
		return errs.Newf("filter.typecheck", errs.InvalidRequest, "type mismatch comparing field %q (%s) to literal", field, f.Type)
	}
	return nil
}

func literalMatchesType(lit Literal, t catalog.FieldType) bool {
	if lit.Value == nil {
		return true // null is comparable against anything (eq/ne null)
	}
	switch lit.Value.(type) {
	case string:
		return t == catalog.TypeString || t == catalog.TypeDateTimeOffset
	case float64:
		return t == catalog.TypeInt32 || t == catalog.TypeInt64 || t == catalog.TypeDouble || t == catalog.TypeSingle
	case bool:
		return t == catalog.TypeBoolean
	default:
		return false
	}
}

func pushdownClauses(e Expr, idx catalog.IndexDef) []LexicalClause {
	var out []LexicalClause
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case And:
			walk(n.Left)
			walk(n.Right)
		case Compare:
			f, ok := idx.FieldByName(n.Field)
			if !ok || !f.Filterable {
				return
			}
			v, err := literalToValue(n.Value, f.Type)
			if err != nil {
				return
			}
			out = append(out, LexicalClause{Field: n.Field, Op: n.Op, Value: v})
		}
		// Only top-level, all-AND conjuncts are pushed down; OR/NOT/lambda
		// branches are left entirely to the residual predicate so pushdown
		// never silently over-prunes.
	}
	walk(e)
	return out
}

func literalToValue(lit Literal, t catalog.FieldType) (value.Value, error) {
	if lit.Value == nil {
		return value.Null(), nil
	}
	switch v := lit.Value.(type) {
	case string:
		if t == catalog.TypeDateTimeOffset {
			tt, err := parseDateTime(v)
			if err != nil {
				return value.Value{}, err
			}
			return value.DateTime(tt), nil
		}
		return value.String(v), nil
	case float64:
		if t == catalog.TypeInt32 || t == catalog.TypeInt64 {
			return value.Int64(int64(v)), nil
		}
		return value.Float64(v), nil
	case bool:
		return value.Bool(v), nil
	default:
		return value.Value{}, errs.Newf("filter.compile", errs.InvalidRequest, "unsupported literal type for field type %s", t)
	}
}
